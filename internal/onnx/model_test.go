package onnx

import (
	"testing"

	"github.com/born-ml/traingraph/internal/backend/cpu"
	"github.com/born-ml/traingraph/internal/tensor"
)

// TestModelRunAdd tests evaluating X + Y with Y as an initializer.
func TestModelRunAdd(t *testing.T) {
	proto := buildAddModel()

	model, err := NewModel(proto, cpu.New(), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	// Initializers are excluded from the runtime inputs.
	if names := model.InputNames(); len(names) != 1 || names[0] != "X" {
		t.Fatalf("Expected input names [X], got %v", names)
	}

	x, err := tensor.FromFloat32([]float32{10, 20, 30, 40}, tensor.Shape{2, 2}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}

	outputs, err := model.Run(x)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outputs) != 1 {
		t.Fatalf("Expected 1 output, got %d", len(outputs))
	}

	// Y initializer raw data encodes [1, 2, 3, 4].
	expected := []float32{11, 22, 33, 44}
	for i, v := range outputs[0].AsFloat32() {
		if v != expected[i] {
			t.Errorf("Output[%d]: expected %v, got %v", i, expected[i], v)
		}
	}
}

// TestModelRunChain tests a two-node MatMul + Relu graph.
func TestModelRunChain(t *testing.T) {
	proto := &ModelProto{
		IRVersion:   8,
		OpsetImport: []OperatorSetID{{Version: 13}},
		Graph: &GraphProto{
			Name: "chain",
			Nodes: []NodeProto{
				{OpType: "MatMul", Inputs: []string{"x", "w"}, Outputs: []string{"h"}},
				{OpType: "Relu", Inputs: []string{"h"}, Outputs: []string{"y"}},
			},
			Initializers: []TensorProto{
				{
					Name:      "w",
					DataType:  TensorProtoFloat,
					Dims:      []int64{2, 2},
					FloatData: []float32{1, 0, 0, -1},
				},
			},
			Inputs:  []ValueInfoProto{floatValueInfo("x", []int64{1, 2})},
			Outputs: []ValueInfoProto{floatValueInfo("y", []int64{1, 2})},
		},
	}

	model, err := NewModel(proto, cpu.New(), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	x, err := tensor.FromFloat32([]float32{3, 5}, tensor.Shape{1, 2}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromFloat32 failed: %v", err)
	}

	outputs, err := model.Run(x)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// x*w = [3, -5], relu -> [3, 0]
	got := outputs[0].AsFloat32()
	if got[0] != 3 || got[1] != 0 {
		t.Errorf("Expected [3 0], got %v", got)
	}
}

// TestNewModelUnsupportedOp tests construction failure on unknown ops.
func TestNewModelUnsupportedOp(t *testing.T) {
	proto := buildAddModel()
	proto.Graph.Nodes[0].OpType = "Conv"

	if _, err := NewModel(proto, cpu.New(), nil); err == nil {
		t.Error("Expected error for unsupported op, got nil")
	}
}

// TestModelRunMissingInput tests the input-count check.
func TestModelRunMissingInput(t *testing.T) {
	model, err := NewModel(buildAddModel(), cpu.New(), nil)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	if _, err := model.Run(); err == nil {
		t.Error("Expected error for missing input, got nil")
	}
}

// TestRegistrySupportedOps tests the builtin op registry.
func TestRegistrySupportedOps(t *testing.T) {
	registry := NewRegistry()

	for _, op := range []string{"Add", "Sub", "Mul", "Div", "MatMul", "Relu", "Softmax", "ReduceSum", "ReduceMean", "Identity"} {
		if _, ok := registry.Get(op); !ok {
			t.Errorf("Expected builtin op %q to be registered", op)
		}
	}
	if _, ok := registry.Get("Conv"); ok {
		t.Error("Conv should not be registered")
	}
}
