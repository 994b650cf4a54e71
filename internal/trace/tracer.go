package trace

import (
	"fmt"
	"sort"

	"github.com/born-ml/traingraph/internal/export"
	"github.com/born-ml/traingraph/internal/onnx"
	"github.com/born-ml/traingraph/internal/tensor"
)

const (
	producerName    = "traingraph"
	producerVersion = "0.1.0"
	irVersion       = 8
)

// swapper is the capability a callable must expose so its compute can be
// rerouted through the recording backend for one traced forward pass.
type swapper interface {
	SetBackend(backend tensor.Backend)
	Backend() tensor.Backend
}

// Tracer is the built-in trace-export backend. It reroutes the callable's
// compute through a RecordingBackend, runs the forward pass once, and
// replays the tape into a serialized ONNX graph.
type Tracer struct{}

// New creates a Tracer.
func New() *Tracer {
	return &Tracer{}
}

// Trace implements export.Tracer.
func (t *Tracer) Trace(req export.Request) ([]byte, error) {
	sw, ok := req.Callable.(swapper)
	if !ok || sw.Backend() == nil {
		return nil, fmt.Errorf("callable does not expose a swappable compute backend, cannot trace")
	}

	base := sw.Backend()
	rec := NewRecording(base)
	sw.SetBackend(rec)
	defer sw.SetBackend(base)

	outputs, err := req.Callable.Forward(req.SampleInputs...)
	if err != nil {
		return nil, fmt.Errorf("traced forward pass: %w", err)
	}
	if len(outputs) < len(req.OutputNames) {
		return nil, fmt.Errorf("traced callable produced %d outputs, descriptor declares %d", len(outputs), len(req.OutputNames))
	}

	graph, err := t.buildGraph(req, rec.Tape(), outputs)
	if err != nil {
		return nil, err
	}

	model := &onnx.ModelProto{
		IRVersion:       irVersion,
		OpsetImport:     []onnx.OperatorSetID{{Domain: "", Version: req.OpsetVersion}},
		ProducerName:    producerName,
		ProducerVersion: producerVersion,
		Graph:           graph,
	}
	if req.Training {
		model.MetadataProps = append(model.MetadataProps, onnx.StringStringEntry{Key: "training_mode", Value: "1"})
	}
	return onnx.Marshal(model), nil
}

// buildGraph replays the tape into a GraphProto. Tensor identity maps traced
// values to names: declared inputs and parameters are fixed up front, graph
// outputs take the declared output names, everything else is an intermediate.
//
//nolint:gocognit // Tape replay resolves names for every traced operand in one pass.
func (t *Tracer) buildGraph(req export.Request, tape []record, outputs []*tensor.RawTensor) (*onnx.GraphProto, error) {
	graph := &onnx.GraphProto{Name: "traingraph_export"}

	names := make(map[*tensor.RawTensor]string)
	for i, name := range req.InputNames {
		if i < len(req.SampleInputs) {
			names[req.SampleInputs[i]] = name
		}
	}

	// Parameters become initializers under their wrapper-prefixed names.
	// Sorted for a deterministic graph layout.
	paramNames := make([]string, 0, len(req.Parameters))
	for name := range req.Parameters {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)
	for _, name := range paramNames {
		p := req.Parameters[name]
		names[p] = name
		graph.Initializers = append(graph.Initializers, tensorProtoOf(name, p))
	}

	outputNames := make(map[*tensor.RawTensor]string, len(req.OutputNames))
	for i, name := range req.OutputNames {
		outputNames[outputs[i]] = name
	}

	nextTmp, nextConst := 0, 0
	for _, rec := range tape {
		node := onnx.NodeProto{OpType: rec.opType, Attributes: rec.attrs}

		for _, in := range rec.inputs {
			name, ok := names[in]
			if !ok {
				// A tensor materialized inside the forward pass with no
				// declared name: embed it as a constant initializer.
				name = fmt.Sprintf("const_%d", nextConst)
				nextConst++
				names[in] = name
				graph.Initializers = append(graph.Initializers, tensorProtoOf(name, in))
			}
			node.Inputs = append(node.Inputs, name)
		}

		outName, ok := outputNames[rec.output]
		if !ok {
			outName = fmt.Sprintf("t%d", nextTmp)
			nextTmp++
		}
		names[rec.output] = outName
		node.Outputs = []string{outName}
		graph.Nodes = append(graph.Nodes, node)
	}

	// Input signatures: declared order, sample dtypes/shapes, symbolic
	// names substituted from the dynamic-axis map. Initializers are listed
	// as graph inputs too; the normalization pass strips them again.
	for i, name := range req.InputNames {
		graph.Inputs = append(graph.Inputs, valueInfoOf(name, req.SampleInputs[i], req.DynamicAxes[name]))
	}
	for _, name := range paramNames {
		graph.Inputs = append(graph.Inputs, valueInfoOf(name, req.Parameters[name], nil))
	}

	for i, name := range req.OutputNames {
		if _, ok := names[outputs[i]]; !ok {
			return nil, fmt.Errorf("declared output %q was not produced by the traced forward pass", name)
		}
		graph.Outputs = append(graph.Outputs, valueInfoOf(name, outputs[i], req.DynamicAxes[name]))
	}

	return graph, nil
}

// tensorProtoOf embeds a tensor as a named initializer.
func tensorProtoOf(name string, t *tensor.RawTensor) onnx.TensorProto {
	dims := make([]int64, len(t.Shape()))
	for i, d := range t.Shape() {
		dims[i] = int64(d)
	}
	raw := make([]byte, len(t.Bytes()))
	copy(raw, t.Bytes())
	return onnx.TensorProto{
		Name:     name,
		DataType: onnx.ElemTypeOf(t.DType()),
		Dims:     dims,
		RawData:  raw,
	}
}

// valueInfoOf builds an input/output signature entry, replacing traced
// static dimensions with symbolic names where the dynamic-axis map says so.
func valueInfoOf(name string, t *tensor.RawTensor, axes map[int]string) onnx.ValueInfoProto {
	shape := &onnx.TensorShapeProto{}
	for i, d := range t.Shape() {
		dim := onnx.DimensionProto{DimValue: int64(d)}
		if symbol, ok := axes[i]; ok {
			dim = onnx.DimensionProto{DimParam: symbol}
		}
		shape.Dims = append(shape.Dims, dim)
	}
	return onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{
			TensorType: &onnx.TensorTypeProto{
				ElemType: onnx.ElemTypeOf(t.DType()),
				Shape:    shape,
			},
		},
	}
}
