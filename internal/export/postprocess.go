package export

import (
	"fmt"

	"github.com/born-ml/traingraph/internal/onnx"
)

// Pass rewrites a graph in place. Failures inside a pass propagate to the
// caller unchanged.
type Pass interface {
	Run(model *onnx.ModelProto) error
}

// PassFunc adapts a function to the Pass capability.
type PassFunc func(model *onnx.ModelProto) error

// Run implements Pass.
func (f PassFunc) Run(model *onnx.ModelProto) error {
	return f(model)
}

// RunPasses applies the given passes in order. Nil entries are skipped so
// the optional user pass can be passed through unconditionally.
func RunPasses(model *onnx.ModelProto, passes ...Pass) error {
	for _, pass := range passes {
		if pass == nil {
			continue
		}
		if err := pass.Run(model); err != nil {
			return err
		}
	}
	return nil
}

// Normalize is the internal normalization pass applied after name
// reconciliation: initializer names are dropped from the graph input list
// (older exporters list parameters as inputs) and anonymous nodes get
// deterministic names.
func Normalize() Pass {
	return PassFunc(func(model *onnx.ModelProto) error {
		if model.Graph == nil {
			return fmt.Errorf("normalize: model has no graph")
		}
		graph := model.Graph

		initNames := make(map[string]bool, len(graph.Initializers))
		for i := range graph.Initializers {
			initNames[graph.Initializers[i].Name] = true
		}

		inputs := graph.Inputs[:0]
		for _, input := range graph.Inputs {
			if !initNames[input.Name] {
				inputs = append(inputs, input)
			}
		}
		graph.Inputs = inputs

		for i := range graph.Nodes {
			if graph.Nodes[i].Name == "" {
				graph.Nodes[i].Name = fmt.Sprintf("%s_%d", graph.Nodes[i].OpType, i)
			}
		}
		return nil
	})
}
