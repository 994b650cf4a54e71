package onnx

import (
	"os"
	"path/filepath"
	"testing"
)

// buildAddModel builds a minimal model computing Z = X + Y with one
// initializer, for round-trip tests.
func buildAddModel() *ModelProto {
	return &ModelProto{
		IRVersion:       8,
		ProducerName:    "traingraph",
		ProducerVersion: "0.1.0",
		OpsetImport:     []OperatorSetID{{Domain: "", Version: 13}},
		Graph: &GraphProto{
			Name: "add_graph",
			Nodes: []NodeProto{
				{
					Name:    "add_0",
					OpType:  "Add",
					Inputs:  []string{"X", "Y"},
					Outputs: []string{"Z"},
				},
			},
			Initializers: []TensorProto{
				{
					Name:     "Y",
					DataType: TensorProtoFloat,
					Dims:     []int64{2, 2},
					RawData:  []byte{0, 0, 128, 63, 0, 0, 0, 64, 0, 0, 64, 64, 0, 0, 128, 64}, // 1,2,3,4
				},
			},
			Inputs: []ValueInfoProto{
				floatValueInfo("X", []int64{2, 2}),
			},
			Outputs: []ValueInfoProto{
				floatValueInfo("Z", []int64{2, 2}),
			},
		},
		MetadataProps: []StringStringEntry{{Key: "training_mode", Value: "1"}},
	}
}

func floatValueInfo(name string, dims []int64) ValueInfoProto {
	shape := &TensorShapeProto{}
	for _, d := range dims {
		shape.Dims = append(shape.Dims, DimensionProto{DimValue: d})
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{
			TensorType: &TensorTypeProto{
				ElemType: TensorProtoFloat,
				Shape:    shape,
			},
		},
	}
}

// TestMarshalParseRoundTrip tests that a marshaled model parses back
// field-for-field.
func TestMarshalParseRoundTrip(t *testing.T) {
	original := buildAddModel()

	data := Marshal(original)
	if len(data) == 0 {
		t.Fatal("Marshal produced no bytes")
	}

	model, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if model.IRVersion != 8 {
		t.Errorf("Expected IR version 8, got %d", model.IRVersion)
	}
	if model.ProducerName != "traingraph" {
		t.Errorf("Expected producer 'traingraph', got '%s'", model.ProducerName)
	}
	if len(model.OpsetImport) != 1 || model.OpsetImport[0].Version != 13 {
		t.Errorf("Expected opset 13, got %+v", model.OpsetImport)
	}

	if model.Graph == nil {
		t.Fatal("Graph is nil")
	}
	if model.Graph.Name != "add_graph" {
		t.Errorf("Expected graph name 'add_graph', got '%s'", model.Graph.Name)
	}
	if len(model.Graph.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(model.Graph.Nodes))
	}

	node := model.Graph.Nodes[0]
	if node.OpType != "Add" {
		t.Errorf("Expected OpType 'Add', got '%s'", node.OpType)
	}
	if len(node.Inputs) != 2 || node.Inputs[0] != "X" || node.Inputs[1] != "Y" {
		t.Errorf("Unexpected node inputs: %v", node.Inputs)
	}
	if len(node.Outputs) != 1 || node.Outputs[0] != "Z" {
		t.Errorf("Unexpected node outputs: %v", node.Outputs)
	}

	if len(model.Graph.Initializers) != 1 {
		t.Fatalf("Expected 1 initializer, got %d", len(model.Graph.Initializers))
	}
	init := model.Graph.Initializers[0]
	if init.Name != "Y" {
		t.Errorf("Expected initializer 'Y', got '%s'", init.Name)
	}
	if len(init.Dims) != 2 || init.Dims[0] != 2 || init.Dims[1] != 2 {
		t.Errorf("Unexpected initializer dims: %v", init.Dims)
	}
	if len(init.RawData) != 16 {
		t.Errorf("Expected 16 raw bytes, got %d", len(init.RawData))
	}

	if len(model.MetadataProps) != 1 || model.MetadataProps[0].Key != "training_mode" || model.MetadataProps[0].Value != "1" {
		t.Errorf("Unexpected metadata: %+v", model.MetadataProps)
	}
}

// TestMarshalValueInfoShapes tests dim_value and dim_param round-tripping.
func TestMarshalValueInfoShapes(t *testing.T) {
	original := buildAddModel()
	original.Graph.Inputs[0].Type.TensorType.Shape.Dims[0] = DimensionProto{DimParam: "batch"}

	model, err := Parse(Marshal(original))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	input := model.Graph.Inputs[0]
	if input.Name != "X" {
		t.Fatalf("Expected input 'X', got '%s'", input.Name)
	}
	dims := input.Type.TensorType.Shape.Dims
	if len(dims) != 2 {
		t.Fatalf("Expected 2 dims, got %d", len(dims))
	}
	if dims[0].DimParam != "batch" {
		t.Errorf("Expected dim_param 'batch', got '%s'", dims[0].DimParam)
	}
	if dims[1].DimValue != 2 {
		t.Errorf("Expected dim_value 2, got %d", dims[1].DimValue)
	}
}

// TestMarshalAttributes tests attribute round-tripping.
func TestMarshalAttributes(t *testing.T) {
	original := buildAddModel()
	original.Graph.Nodes[0].Attributes = []AttributeProto{
		{Name: "axis", Type: AttributeProtoInt, I: -1},
		{Name: "alpha", Type: AttributeProtoFloat, F: 0.5},
	}

	model, err := Parse(Marshal(original))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	attrs := model.Graph.Nodes[0].Attributes
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Name != "axis" || attrs[0].I != -1 {
		t.Errorf("Unexpected int attribute: %+v", attrs[0])
	}
	if attrs[1].Name != "alpha" || attrs[1].F != 0.5 {
		t.Errorf("Unexpected float attribute: %+v", attrs[1])
	}
}

// TestWriteFile tests serializing to disk and reading back.
func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")

	if err := WriteFile(buildAddModel(), path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if stat.Size() == 0 {
		t.Fatal("Written file is empty")
	}

	model, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if model.Graph == nil || len(model.Graph.Nodes) != 1 {
		t.Error("Round-tripped file lost graph content")
	}
}

// TestGetModelInfo tests the file summary helper.
func TestGetModelInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	if err := WriteFile(buildAddModel(), path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := GetModelInfo(path)
	if err != nil {
		t.Fatalf("GetModelInfo failed: %v", err)
	}

	if info.OpsetVersion != 13 {
		t.Errorf("Expected opset 13, got %d", info.OpsetVersion)
	}
	if info.NodeCount != 1 {
		t.Errorf("Expected 1 node, got %d", info.NodeCount)
	}
	if info.WeightCount != 1 {
		t.Errorf("Expected 1 initializer, got %d", info.WeightCount)
	}
	// Initializers are excluded from the reported inputs.
	if len(info.InputNames) != 1 || info.InputNames[0] != "X" {
		t.Errorf("Expected inputs [X], got %v", info.InputNames)
	}
	if len(info.OutputNames) != 1 || info.OutputNames[0] != "Z" {
		t.Errorf("Expected outputs [Z], got %v", info.OutputNames)
	}
}
