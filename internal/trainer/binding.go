package trainer

import (
	"errors"
	"fmt"

	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/onnx"
)

// Binding errors.
var (
	// ErrUnsupportedCombination indicates a model/loss pairing outside the
	// accepted set (e.g., a precomputed graph with a loss function).
	ErrUnsupportedCombination = errors.New("unsupported model and loss combination")

	// ErrUnrecognizedModelType indicates the model is neither a native
	// module nor a precomputed graph.
	ErrUnrecognizedModelType = errors.New("unrecognized model type")
)

// bindingKind discriminates the Binding union.
type bindingKind int

const (
	// bindModule pairs a native differentiable module with an optional
	// loss function; the graph is produced by trace export.
	bindModule bindingKind = iota

	// bindGraph adopts an already-serialized graph as-is; export is
	// bypassed entirely.
	bindGraph
)

// Binding is the tagged union over the accepted input forms. Exactly one
// variant is populated, enforced at construction:
//
//	| model            | loss    |
//	| native module    | absent  |
//	| native module    | present |
//	| precomputed graph| absent  |
//
// Any other combination is rejected. Adding a new model form means adding
// a new variant here, not a new type switch at a call site.
type Binding struct {
	kind   bindingKind
	module nn.Module
	lossFn nn.Loss
	graph  *onnx.ModelProto
}

// Bind classifies and validates the (model, loss) pair. The loss-function
// arity requirement (exactly two positional tensor arguments) is carried by
// the nn.Loss type itself.
func Bind(model any, lossFn nn.Loss) (*Binding, error) {
	switch m := model.(type) {
	case nn.Module:
		return &Binding{kind: bindModule, module: m, lossFn: lossFn}, nil
	case *onnx.ModelProto:
		if lossFn != nil {
			return nil, fmt.Errorf("%w: a loss function must not be supplied with a precomputed graph", ErrUnsupportedCombination)
		}
		return &Binding{kind: bindGraph, graph: m}, nil
	case nil:
		return nil, fmt.Errorf("%w: model is required", ErrUnrecognizedModelType)
	default:
		return nil, fmt.Errorf("%w: %T (want a native module or a precomputed graph)", ErrUnrecognizedModelType, model)
	}
}

// IsGraph reports whether the binding adopts a precomputed graph.
func (b *Binding) IsGraph() bool {
	return b.kind == bindGraph
}

// Module returns the bound native module, or nil for graph bindings.
func (b *Binding) Module() nn.Module {
	return b.module
}

// LossFn returns the bound loss function, or nil.
func (b *Binding) LossFn() nn.Loss {
	return b.lossFn
}

// Graph returns the precomputed graph, or nil for module bindings.
func (b *Binding) Graph() *onnx.ModelProto {
	return b.graph
}
