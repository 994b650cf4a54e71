// Package trace implements the default trace-export backend: a recording
// decorator over any compute backend logs every operation of a single
// forward pass, and the tape is replayed into an ONNX graph.
package trace

import (
	"github.com/born-ml/traingraph/internal/onnx"
	"github.com/born-ml/traingraph/internal/tensor"
)

// record is one traced operation.
type record struct {
	opType string
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	attrs  []onnx.AttributeProto
}

// RecordingBackend wraps a Backend and records every operation performed
// through it. It implements tensor.Backend, so a module whose compute is
// rerouted through it traces itself by simply running forward once.
type RecordingBackend struct {
	inner tensor.Backend
	tape  []record
}

// NewRecording creates a recording decorator over the given backend.
func NewRecording(inner tensor.Backend) *RecordingBackend {
	return &RecordingBackend{inner: inner}
}

// Tape returns the recorded operations in execution order.
func (b *RecordingBackend) Tape() []record {
	return b.tape
}

func (b *RecordingBackend) log(opType string, out *tensor.RawTensor, attrs []onnx.AttributeProto, inputs ...*tensor.RawTensor) *tensor.RawTensor {
	b.tape = append(b.tape, record{opType: opType, inputs: inputs, output: out, attrs: attrs})
	return out
}

// Add records an element-wise addition.
func (b *RecordingBackend) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.log("Add", b.inner.Add(a, c), nil, a, c)
}

// Sub records an element-wise subtraction.
func (b *RecordingBackend) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.log("Sub", b.inner.Sub(a, c), nil, a, c)
}

// Mul records an element-wise multiplication.
func (b *RecordingBackend) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.log("Mul", b.inner.Mul(a, c), nil, a, c)
}

// Div records an element-wise division.
func (b *RecordingBackend) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.log("Div", b.inner.Div(a, c), nil, a, c)
}

// MatMul records a matrix multiplication.
func (b *RecordingBackend) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.log("MatMul", b.inner.MatMul(a, c), nil, a, c)
}

// Relu records a rectified linear activation.
func (b *RecordingBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return b.log("Relu", b.inner.Relu(x), nil, x)
}

// Softmax records a softmax with its axis attribute.
func (b *RecordingBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	attrs := []onnx.AttributeProto{{Name: "axis", Type: onnx.AttributeProtoInt, I: int64(dim)}}
	return b.log("Softmax", b.inner.Softmax(x, dim), attrs, x)
}

// Sum records a full reduction to a scalar.
func (b *RecordingBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	attrs := []onnx.AttributeProto{{Name: "keepdims", Type: onnx.AttributeProtoInt, I: 0}}
	return b.log("ReduceSum", b.inner.Sum(x), attrs, x)
}

// Mean records a full mean reduction to a scalar.
func (b *RecordingBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	attrs := []onnx.AttributeProto{{Name: "keepdims", Type: onnx.AttributeProtoInt, I: 0}}
	return b.log("ReduceMean", b.inner.Mean(x), attrs, x)
}

// Name returns the decorated backend name.
func (b *RecordingBackend) Name() string {
	return "Recording(" + b.inner.Name() + ")"
}

// Device returns the wrapped backend's device.
func (b *RecordingBackend) Device() tensor.Device {
	return b.inner.Device()
}
