package onnx

import (
	"fmt"

	"github.com/born-ml/traingraph/internal/tensor"
)

// OpFunc evaluates a single graph node given its resolved input tensors.
type OpFunc func(backend tensor.Backend, node *NodeProto, inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// Registry maps ONNX operator types to evaluation functions.
type Registry struct {
	ops map[string]OpFunc
}

// NewRegistry creates a registry with the built-in operator set.
func NewRegistry() *Registry {
	r := &Registry{ops: make(map[string]OpFunc)}
	r.registerBuiltins()
	return r
}

// Register adds or overrides an operator handler.
func (r *Registry) Register(opType string, fn OpFunc) {
	r.ops[opType] = fn
}

// Get returns the handler for an operator type.
func (r *Registry) Get(opType string) (OpFunc, bool) {
	fn, ok := r.ops[opType]
	return fn, ok
}

// SupportedOps returns all registered operator types.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.ops))
	for op := range r.ops {
		ops = append(ops, op)
	}
	return ops
}

func (r *Registry) registerBuiltins() {
	binary := func(apply func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor) OpFunc {
		return func(b tensor.Backend, node *NodeProto, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			if len(inputs) != 2 {
				return nil, fmt.Errorf("%s expects 2 inputs, got %d", node.OpType, len(inputs))
			}
			return apply(b, inputs[0], inputs[1]), nil
		}
	}
	unary := func(apply func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor) OpFunc {
		return func(b tensor.Backend, node *NodeProto, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
			if len(inputs) != 1 {
				return nil, fmt.Errorf("%s expects 1 input, got %d", node.OpType, len(inputs))
			}
			return apply(b, inputs[0]), nil
		}
	}

	r.Register("Add", binary(func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor { return b.Add(x, y) }))
	r.Register("Sub", binary(func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor { return b.Sub(x, y) }))
	r.Register("Mul", binary(func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor { return b.Mul(x, y) }))
	r.Register("Div", binary(func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor { return b.Div(x, y) }))
	r.Register("MatMul", binary(func(b tensor.Backend, x, y *tensor.RawTensor) *tensor.RawTensor { return b.MatMul(x, y) }))
	r.Register("Relu", unary(func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Relu(x) }))
	r.Register("ReduceSum", unary(func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Sum(x) }))
	r.Register("ReduceMean", unary(func(b tensor.Backend, x *tensor.RawTensor) *tensor.RawTensor { return b.Mean(x) }))
	r.Register("Identity", func(_ tensor.Backend, _ *NodeProto, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		if len(inputs) != 1 {
			return nil, fmt.Errorf("Identity expects 1 input, got %d", len(inputs))
		}
		return inputs[0], nil
	})
	r.Register("Softmax", func(b tensor.Backend, node *NodeProto, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
		if len(inputs) != 1 {
			return nil, fmt.Errorf("Softmax expects 1 input, got %d", len(inputs))
		}
		axis := -1
		for i := range node.Attributes {
			if node.Attributes[i].Name == "axis" {
				axis = int(node.Attributes[i].I)
			}
		}
		return b.Softmax(inputs[0], axis), nil
	})
}

// Model is an executable view over a training-annotated graph. It serves as
// the default execution backend behind the trainer's step dispatch: nodes are
// evaluated in graph order against the supplied compute backend.
type Model struct {
	proto       *ModelProto
	registry    *Registry
	backend     tensor.Backend
	weights     map[string]*tensor.RawTensor
	inputNames  []string
	outputNames []string
}

// NewModel prepares a parsed graph for execution.
func NewModel(proto *ModelProto, backend tensor.Backend, registry *Registry) (*Model, error) {
	if proto.Graph == nil {
		return nil, fmt.Errorf("model has no graph")
	}
	if registry == nil {
		registry = NewRegistry()
	}

	m := &Model{
		proto:    proto,
		registry: registry,
		backend:  backend,
		weights:  make(map[string]*tensor.RawTensor),
	}

	for i := range proto.Graph.Initializers {
		init := &proto.Graph.Initializers[i]
		w, err := tensorFromProto(init, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("initializer %q: %w", init.Name, err)
		}
		m.weights[init.Name] = w
	}

	initNames := make(map[string]bool, len(m.weights))
	for name := range m.weights {
		initNames[name] = true
	}
	for i := range proto.Graph.Inputs {
		if !initNames[proto.Graph.Inputs[i].Name] {
			m.inputNames = append(m.inputNames, proto.Graph.Inputs[i].Name)
		}
	}
	for i := range proto.Graph.Outputs {
		m.outputNames = append(m.outputNames, proto.Graph.Outputs[i].Name)
	}

	for i := range proto.Graph.Nodes {
		if _, ok := registry.Get(proto.Graph.Nodes[i].OpType); !ok {
			return nil, fmt.Errorf("unsupported operator: %s", proto.Graph.Nodes[i].OpType)
		}
	}

	return m, nil
}

// InputNames returns graph input names, initializers excluded.
func (m *Model) InputNames() []string {
	return m.inputNames
}

// OutputNames returns graph output names.
func (m *Model) OutputNames() []string {
	return m.outputNames
}

// Run evaluates the graph with inputs bound positionally to InputNames and
// returns the output tensors in OutputNames order.
func (m *Model) Run(inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != len(m.inputNames) {
		return nil, fmt.Errorf("graph expects %d inputs, got %d", len(m.inputNames), len(inputs))
	}

	tensors := make(map[string]*tensor.RawTensor, len(m.weights)+len(inputs))
	for name, w := range m.weights {
		tensors[name] = w
	}
	for i, name := range m.inputNames {
		tensors[name] = inputs[i]
	}

	for i := range m.proto.Graph.Nodes {
		node := &m.proto.Graph.Nodes[i]
		fn, _ := m.registry.Get(node.OpType)

		nodeInputs := make([]*tensor.RawTensor, len(node.Inputs))
		for j, name := range node.Inputs {
			t, ok := tensors[name]
			if !ok {
				return nil, fmt.Errorf("node %q references unknown tensor %q", node.Name, name)
			}
			nodeInputs[j] = t
		}

		out, err := fn(m.backend, node, nodeInputs)
		if err != nil {
			return nil, fmt.Errorf("node %q (%s): %w", node.Name, node.OpType, err)
		}
		if len(node.Outputs) != 1 {
			return nil, fmt.Errorf("node %q: multi-output nodes not supported", node.Name)
		}
		tensors[node.Outputs[0]] = out
	}

	outputs := make([]*tensor.RawTensor, len(m.outputNames))
	for i, name := range m.outputNames {
		t, ok := tensors[name]
		if !ok {
			return nil, fmt.Errorf("graph output %q was never produced", name)
		}
		outputs[i] = t
	}
	return outputs, nil
}

// tensorFromProto materializes an initializer as a RawTensor.
func tensorFromProto(t *TensorProto, device tensor.Device) (*tensor.RawTensor, error) {
	dtype, err := DataTypeOf(t.DataType)
	if err != nil {
		return nil, err
	}

	shape := make(tensor.Shape, len(t.Dims))
	for i, d := range t.Dims {
		shape[i] = int(d)
	}

	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}

	switch {
	case len(t.RawData) > 0:
		if len(t.RawData) != len(raw.Bytes()) {
			return nil, fmt.Errorf("raw data size %d does not match shape %v", len(t.RawData), shape)
		}
		copy(raw.Bytes(), t.RawData)
	case len(t.FloatData) > 0 && dtype == tensor.Float32:
		copy(raw.AsFloat32(), t.FloatData)
	}
	return raw, nil
}
