package cpu

import (
	"testing"

	"github.com/born-ml/traingraph/internal/tensor"
)

// Helper to create a float32 tensor or fail the test.
func mustTensor(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rt, err := tensor.FromFloat32(values, shape, tensor.CPU)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}
	return rt
}

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > epsilon {
			return false
		}
	}
	return true
}

// TestCPUBackend_New tests backend creation.
func TestCPUBackend_New(t *testing.T) {
	backend := New()
	if backend == nil {
		t.Fatal("New() returned nil")
	}
	if backend.Name() != "CPU" {
		t.Errorf("Expected name 'CPU', got '%s'", backend.Name())
	}
	if backend.Device() != tensor.CPU {
		t.Errorf("Expected CPU device, got %v", backend.Device())
	}
}

// TestCPUBackend_Add tests element-wise addition.
func TestCPUBackend_Add(t *testing.T) {
	backend := New()

	a := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := mustTensor(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)
	expected := []float32{11, 22, 33, 44}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Add: expected %v, got %v", expected, result.AsFloat32())
	}
}

// TestCPUBackend_AddBroadcast tests bias-style broadcasting [m,n] + [n].
func TestCPUBackend_AddBroadcast(t *testing.T) {
	backend := New()

	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := mustTensor(t, []float32{10, 20, 30}, tensor.Shape{3})

	result := backend.Add(a, bias)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Expected shape [2 3], got %v", result.Shape())
	}
	expected := []float32{11, 22, 33, 14, 25, 36}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Add broadcast: expected %v, got %v", expected, result.AsFloat32())
	}
}

// TestCPUBackend_SubMulDiv tests the remaining element-wise ops.
func TestCPUBackend_SubMulDiv(t *testing.T) {
	backend := New()

	a := mustTensor(t, []float32{4, 9, 16, 25}, tensor.Shape{4})
	b := mustTensor(t, []float32{2, 3, 4, 5}, tensor.Shape{4})

	sub := backend.Sub(a, b)
	if !float32SliceEqual(sub.AsFloat32(), []float32{2, 6, 12, 20}) {
		t.Errorf("Sub: got %v", sub.AsFloat32())
	}

	mul := backend.Mul(a, b)
	if !float32SliceEqual(mul.AsFloat32(), []float32{8, 27, 64, 125}) {
		t.Errorf("Mul: got %v", mul.AsFloat32())
	}

	div := backend.Div(a, b)
	if !float32SliceEqual(div.AsFloat32(), []float32{2, 3, 4, 5}) {
		t.Errorf("Div: got %v", div.AsFloat32())
	}
}

// TestCPUBackend_MatMul tests 2D matrix multiplication.
func TestCPUBackend_MatMul(t *testing.T) {
	backend := New()

	// [2,3] x [3,2] -> [2,2]
	a := mustTensor(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := mustTensor(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Expected shape [2 2], got %v", result.Shape())
	}
	expected := []float32{58, 64, 139, 154}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("MatMul: expected %v, got %v", expected, result.AsFloat32())
	}
}

// TestCPUBackend_MatMulShapeMismatch tests the incompatible-shape panic.
func TestCPUBackend_MatMulShapeMismatch(t *testing.T) {
	backend := New()

	a := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := mustTensor(t, []float32{1, 2, 3}, tensor.Shape{3})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for incompatible shapes")
		}
	}()
	backend.MatMul(a, b)
}

// TestCPUBackend_Relu tests max(x, 0).
func TestCPUBackend_Relu(t *testing.T) {
	backend := New()

	x := mustTensor(t, []float32{-2, -1, 0, 1, 2}, tensor.Shape{5})
	result := backend.Relu(x)
	expected := []float32{0, 0, 0, 1, 2}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Relu: expected %v, got %v", expected, result.AsFloat32())
	}
}

// TestCPUBackend_Softmax tests last-dimension softmax.
func TestCPUBackend_Softmax(t *testing.T) {
	backend := New()

	x := mustTensor(t, []float32{1, 1, 1, 1}, tensor.Shape{2, 2})
	result := backend.Softmax(x, -1)
	expected := []float32{0.5, 0.5, 0.5, 0.5}
	if !float32SliceEqual(result.AsFloat32(), expected) {
		t.Errorf("Softmax: expected %v, got %v", expected, result.AsFloat32())
	}
}

// TestCPUBackend_SumMean tests the scalar reductions.
func TestCPUBackend_SumMean(t *testing.T) {
	backend := New()

	x := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	sum := backend.Sum(x)
	if !sum.Shape().Equal(tensor.Shape{1}) {
		t.Fatalf("Sum: expected shape [1], got %v", sum.Shape())
	}
	if sum.AsFloat32()[0] != 10 {
		t.Errorf("Sum: expected 10, got %v", sum.AsFloat32()[0])
	}

	mean := backend.Mean(x)
	if mean.AsFloat32()[0] != 2.5 {
		t.Errorf("Mean: expected 2.5, got %v", mean.AsFloat32()[0])
	}
}

// TestCPUBackend_MatMulLarge exercises the parallel path.
func TestCPUBackend_MatMulLarge(t *testing.T) {
	backend := New()

	m, k, n := 300, 8, 4
	av := make([]float32, m*k)
	for i := range av {
		av[i] = 1
	}
	bv := make([]float32, k*n)
	for i := range bv {
		bv[i] = 2
	}

	a := mustTensor(t, av, tensor.Shape{m, k})
	b := mustTensor(t, bv, tensor.Shape{k, n})

	result := backend.MatMul(a, b)
	for i, v := range result.AsFloat32() {
		if v != float32(k)*2 {
			t.Fatalf("MatMul large: index %d expected %v, got %v", i, float32(k)*2, v)
		}
	}
}
