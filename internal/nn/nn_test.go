package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/traingraph/internal/backend/cpu"
	"github.com/born-ml/traingraph/internal/tensor"
)

func mustTensor(t *testing.T, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	rt, err := tensor.FromFloat32(values, shape, tensor.CPU)
	require.NoError(t, err)
	return rt
}

// TestLinear_Forward tests the affine transform shape and determinism.
func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 2, backend)

	x := mustTensor(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4})

	outputs, err := layer.Forward(x)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.True(t, outputs[0].Shape().Equal(tensor.Shape{2, 2}))

	// Same input, same parameters: identical result.
	again, err := layer.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, outputs[0].AsFloat32(), again[0].AsFloat32())
}

// TestLinear_ForwardBadShape tests input validation.
func TestLinear_ForwardBadShape(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 2, backend)

	x := mustTensor(t, []float32{1, 2, 3}, tensor.Shape{1, 3})
	_, err := layer.Forward(x)
	require.Error(t, err)

	flat := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	_, err = layer.Forward(flat)
	require.Error(t, err)
}

// TestLinear_NamedParameters tests parameter enumeration.
func TestLinear_NamedParameters(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(3, 5, backend)

	params := layer.NamedParameters()
	require.Len(t, params, 2)
	require.Contains(t, params, "weight")
	require.Contains(t, params, "bias")
	assert.True(t, params["weight"].Shape().Equal(tensor.Shape{3, 5}))
	assert.True(t, params["bias"].Shape().Equal(tensor.Shape{5}))
}

// TestLinear_XavierInit tests the init bound on the weights.
func TestLinear_XavierInit(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(100, 100, backend)

	limit := float32(0.18) // sqrt(6/200) ~ 0.173, small slack
	for _, v := range layer.NamedParameters()["weight"].AsFloat32() {
		assert.LessOrEqual(t, v, limit)
		assert.GreaterOrEqual(t, v, -limit)
	}
	// Bias starts at zero.
	for _, v := range layer.NamedParameters()["bias"].AsFloat32() {
		assert.Zero(t, v)
	}
}

// TestLinear_SetBackend tests compute rerouting.
func TestLinear_SetBackend(t *testing.T) {
	first := cpu.New()
	second := cpu.New()
	layer := NewLinear(2, 2, first)

	assert.Same(t, first, layer.Backend())
	layer.SetBackend(second)
	assert.Same(t, second, layer.Backend())
}

// TestMSELoss_Forward tests the scalar loss value.
func TestMSELoss_Forward(t *testing.T) {
	backend := cpu.New()
	loss := NewMSELoss(backend)

	pred := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{4, 1})
	target := mustTensor(t, []float32{1, 2, 3, 0}, tensor.Shape{4, 1})

	out, err := loss.Forward(pred, target)
	require.NoError(t, err)
	assert.True(t, out.Shape().Equal(tensor.Shape{1}))

	// mean((0,0,0,4)^2) = 16/4
	assert.InDelta(t, 4.0, out.AsFloat32()[0], 1e-6)
}

// TestMSELoss_ShapeMismatch tests prediction/target validation.
func TestMSELoss_ShapeMismatch(t *testing.T) {
	backend := cpu.New()
	loss := NewMSELoss(backend)

	pred := mustTensor(t, []float32{1, 2}, tensor.Shape{2, 1})
	target := mustTensor(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	_, err := loss.Forward(pred, target)
	require.Error(t, err)
}

// TestParameter_To tests device transfer on a parameter.
func TestParameter_To(t *testing.T) {
	p := NewParameter("w", mustTensor(t, []float32{1}, tensor.Shape{1}))
	require.Equal(t, tensor.CPU, p.Tensor().Device())

	p.To(tensor.CUDA)
	assert.Equal(t, tensor.CUDA, p.Tensor().Device())
}
