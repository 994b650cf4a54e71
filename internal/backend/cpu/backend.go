// Package cpu implements the pure Go reference backend used for the single
// sample forward evaluation during trace export.
package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/traingraph/internal/parallel"
	"github.com/born-ml/traingraph/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU, par: parallel.DefaultConfig()}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.elementwise("div", a, b, func(x, y float32) float32 { return x / y })
}

// MatMul performs 2D matrix multiplication: [m,k] x [k,n] -> [m,n].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 || as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v x %v", as, bs))
	}
	m, k, n := as[0], as[1], bs[1]

	result := cpu.newResult(tensor.Shape{m, n}, a.DType())
	av, bv, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	parallel.For(m, func(i int) {
		for l := 0; l < k; l++ {
			x := av[i*k+l]
			if x == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i*n+j] += x * bv[l*n+j]
			}
		}
	}, cpu.par)
	return result
}

// Relu computes max(x, 0) element-wise.
func (cpu *CPUBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult(x.Shape(), x.DType())
	out := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		if v > 0 {
			out[i] = v
		}
	}
	return result
}

// Softmax computes softmax along the given dimension.
// Only the last dimension is supported.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 {
		dim += len(shape)
	}
	if dim != len(shape)-1 {
		panic(fmt.Sprintf("softmax: only last dimension supported, got dim=%d for shape %v", dim, shape))
	}

	result := cpu.newResult(shape, x.DType())
	in, out := x.AsFloat32(), result.AsFloat32()
	width := shape[len(shape)-1]
	for row := 0; row < len(in); row += width {
		maxV := in[row]
		for _, v := range in[row : row+width] {
			if v > maxV {
				maxV = v
			}
		}
		var sum float32
		for i, v := range in[row : row+width] {
			e := float32(math.Exp(float64(v - maxV)))
			out[row+i] = e
			sum += e
		}
		for i := range out[row : row+width] {
			out[row+i] /= sum
		}
	}
	return result
}

// Sum reduces to a scalar tensor of shape [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult(tensor.Shape{1}, x.DType())
	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// Mean reduces to a scalar tensor of shape [1].
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	result.AsFloat32()[0] /= float32(x.NumElements())
	return result
}

// elementwise applies a binary op with right-aligned broadcasting.
func (cpu *CPUBackend) elementwise(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := cpu.newResult(outShape, a.DType())
	av, bv, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	if a.Shape().Equal(b.Shape()) {
		parallel.For(len(out), func(i int) {
			out[i] = op(av[i], bv[i])
		}, cpu.par)
		return result
	}

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	idx := make([]int, len(outShape))
	for i := range out {
		var aOff, bOff int
		for d := range idx {
			aOff += idx[d] * aStrides[d]
			bOff += idx[d] * bStrides[d]
		}
		out[i] = op(av[aOff], bv[bOff])
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return result
}

// broadcastStrides computes strides of shape as broadcast into outShape,
// with stride 0 for broadcast dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		d := len(outShape) - len(shape) + i
		if shape[i] != 1 {
			strides[d] = stride
		}
		stride *= shape[i]
	}
	return strides
}

func (cpu *CPUBackend) newResult(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("failed to create result tensor: %v", err))
	}
	return result
}
