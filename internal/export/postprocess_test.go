package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/traingraph/internal/onnx"
)

// TestRunPasses_Order tests that passes run in order and nils are skipped.
func TestRunPasses_Order(t *testing.T) {
	model := &onnx.ModelProto{Graph: &onnx.GraphProto{}}

	var order []string
	first := PassFunc(func(m *onnx.ModelProto) error {
		order = append(order, "first")
		return nil
	})
	second := PassFunc(func(m *onnx.ModelProto) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, RunPasses(model, first, nil, second))
	assert.Equal(t, []string{"first", "second"}, order)
}

// TestRunPasses_ErrorStops tests that a failing pass halts the chain with
// its error unchanged.
func TestRunPasses_ErrorStops(t *testing.T) {
	model := &onnx.ModelProto{Graph: &onnx.GraphProto{}}

	failing := PassFunc(func(m *onnx.ModelProto) error {
		return assert.AnError
	})
	var reached bool
	after := PassFunc(func(m *onnx.ModelProto) error {
		reached = true
		return nil
	})

	err := RunPasses(model, failing, after)
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, reached)
}

// TestNormalize tests initializer-input stripping and node naming.
func TestNormalize(t *testing.T) {
	model := &onnx.ModelProto{
		Graph: &onnx.GraphProto{
			Nodes: []onnx.NodeProto{
				{OpType: "MatMul", Inputs: []string{"x", "weight"}, Outputs: []string{"t0"}},
				{Name: "keep_me", OpType: "Add", Inputs: []string{"t0", "bias"}, Outputs: []string{"y"}},
			},
			Initializers: []onnx.TensorProto{
				{Name: "weight"},
				{Name: "bias"},
			},
			Inputs: []onnx.ValueInfoProto{
				{Name: "x"},
				{Name: "weight"},
				{Name: "bias"},
			},
			Outputs: []onnx.ValueInfoProto{{Name: "y"}},
		},
	}

	require.NoError(t, Normalize().Run(model))

	// Initializers no longer appear as graph inputs.
	require.Len(t, model.Graph.Inputs, 1)
	assert.Equal(t, "x", model.Graph.Inputs[0].Name)

	// Anonymous nodes get deterministic names; explicit names survive.
	assert.Equal(t, "MatMul_0", model.Graph.Nodes[0].Name)
	assert.Equal(t, "keep_me", model.Graph.Nodes[1].Name)
}

// TestNormalize_NoGraph tests the nil-graph failure.
func TestNormalize_NoGraph(t *testing.T) {
	err := Normalize().Run(&onnx.ModelProto{})
	require.Error(t, err)
}
