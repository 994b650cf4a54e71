// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx exposes the portable computation graph representation the
// trainer exports to, with a hand-written protobuf wire codec: no generated
// bindings, only the fields the training pipeline reads and writes.
//
// Example:
//
//	model, err := onnx.ParseFile("trained.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(model.Graph.Nodes), "nodes")
package onnx

import "github.com/born-ml/traingraph/internal/onnx"

// ModelProto represents an ONNX model.
type ModelProto = onnx.ModelProto

// GraphProto represents the computation graph.
type GraphProto = onnx.GraphProto

// NodeProto represents a single operation node.
type NodeProto = onnx.NodeProto

// TensorProto represents a named constant tensor (initializer).
type TensorProto = onnx.TensorProto

// ValueInfoProto describes an input/output tensor signature.
type ValueInfoProto = onnx.ValueInfoProto

// ModelInfo contains basic information about an exported graph.
type ModelInfo = onnx.ModelInfo

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	return onnx.Parse(data)
}

// ParseFile parses an ONNX model from a file.
func ParseFile(path string) (*ModelProto, error) {
	return onnx.ParseFile(path)
}

// Marshal serializes an ONNX model to protobuf wire format.
func Marshal(m *ModelProto) []byte {
	return onnx.Marshal(m)
}

// WriteFile serializes the model and writes it to path.
func WriteFile(m *ModelProto, path string) error {
	return onnx.WriteFile(m, path)
}

// GetModelInfo extracts basic info from an ONNX file without preparing it
// for execution.
func GetModelInfo(path string) (*ModelInfo, error) {
	return onnx.GetModelInfo(path)
}
