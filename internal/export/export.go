// Package export drives the one-time conversion of a native module plus loss
// function into a training-annotated ONNX graph: sample gathering, the single
// inference-mode forward evaluation, trace-based export, initializer name
// reconciliation and graph postprocessing.
package export

import (
	"errors"
	"fmt"

	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/onnx"
	"github.com/born-ml/traingraph/internal/schema"
	"github.com/born-ml/traingraph/internal/tensor"
)

// Export errors.
var (
	// ErrUnsupportedInputContainer indicates the tracing sample was neither
	// a single tensor, a mapping keyed by input name, nor an ordered
	// sequence of tensors.
	ErrUnsupportedInputContainer = errors.New("unsupported input container")

	// ErrTraceFailure indicates the underlying trace-based export failed.
	ErrTraceFailure = errors.New("trace export failed")

	// ErrInitializerMismatch indicates a named parameter of the source
	// module is missing from the exported graph's initializers. This is an
	// internal export defect, not a user error.
	ErrInitializerMismatch = errors.New("initializer names do not match between module and exported graph")
)

// DefaultOpsetVersion is the ONNX opset targeted by trace export.
const DefaultOpsetVersion int64 = 13

// Request carries everything a trace-export backend needs to produce a
// serialized graph without re-running the forward pass itself for shape or
// dtype inference.
type Request struct {
	Callable      nn.Module                 // Wrapped module whose positional inputs match InputNames.
	SampleInputs  []*tensor.RawTensor       // One concrete sample per declared input, in order.
	SampleOutputs []*tensor.RawTensor       // Outputs captured during the sample forward evaluation.
	InputNames    []string                  // Declared input names, positional order.
	OutputNames   []string                  // Declared output names, positional order.
	DynamicAxes   map[string]map[int]string // Tensor name -> {dim index -> symbolic name}.
	Parameters    map[string]*tensor.RawTensor
	Training      bool  // Export with training-mode semantics.
	ConstantFold  bool  // Constant folding; kept off so folded tensors stay trainable.
	OpsetVersion  int64 // Target opset.
}

// Tracer is the trace-export backend boundary: given a callable, sample
// tensors and naming information it returns a serialized graph buffer.
type Tracer interface {
	Trace(req Request) ([]byte, error)
}

// Export converts a native module (optionally combined with a loss function)
// into a parsed training-annotated graph. Runtime-observed output dtypes are
// recorded back into the descriptor's output specs. The returned graph still
// carries wrapper-prefixed initializer names; Reconcile strips them.
func Export(module nn.Module, lossFn nn.Loss, desc *schema.Descriptor, device tensor.Device, sample any, tracer Tracer, opset int64) (*onnx.ModelProto, error) {
	if opset == 0 {
		opset = DefaultOpsetVersion
	}

	axes := schema.DynamicAxes(desc)
	inputNames := desc.InputNames()
	outputNames := desc.OutputNames()

	// The trace exporter binds arguments positionally, so the module and
	// loss are wrapped into a single callable whose argument order matches
	// the descriptor's declared inputs exactly.
	wrapped := wrap(module, lossFn, len(desc.Inputs))

	sampleInputs, err := gatherSample(sample, desc, device)
	if err != nil {
		return nil, err
	}

	wrapped.To(device)

	// One inference-mode evaluation to observe output dtypes. The captured
	// outputs are handed to the tracer so it does not need its own forward
	// pass for shape inference.
	sampleOutputs, err := wrapped.Forward(sampleInputs...)
	if err != nil {
		return nil, fmt.Errorf("%w: sample forward evaluation: %v", ErrTraceFailure, err)
	}
	for i := range desc.Outputs {
		if i < len(sampleOutputs) {
			desc.Outputs[i].DType = sampleOutputs[i].DType()
			desc.Outputs[i].HasDT = true
		}
	}

	buf, err := tracer.Trace(Request{
		Callable:      wrapped,
		SampleInputs:  sampleInputs,
		SampleOutputs: sampleOutputs,
		InputNames:    inputNames,
		OutputNames:   outputNames,
		DynamicAxes:   axes,
		Parameters:    wrapped.NamedParameters(),
		Training:      true,
		ConstantFold:  false,
		OpsetVersion:  opset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTraceFailure, err)
	}

	model, err := onnx.Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse exported buffer: %v", ErrTraceFailure, err)
	}
	return model, nil
}

// gatherSample normalizes the tracing sample into one tensor per declared
// input, moved to the target device. Accepted containers: a single tensor,
// a mapping keyed by input name, or an ordered sequence truncated to the
// number of declared inputs.
func gatherSample(sample any, desc *schema.Descriptor, device tensor.Device) ([]*tensor.RawTensor, error) {
	switch s := sample.(type) {
	case *tensor.RawTensor:
		return gatherSample([]*tensor.RawTensor{s}, desc, device)
	case map[string]*tensor.RawTensor:
		inputs := make([]*tensor.RawTensor, 0, len(desc.Inputs))
		for _, spec := range desc.Inputs {
			t, ok := s[spec.Name]
			if !ok {
				return nil, fmt.Errorf("%w: sample mapping is missing input %q", ErrUnsupportedInputContainer, spec.Name)
			}
			inputs = append(inputs, t.To(device))
		}
		return inputs, nil
	case []*tensor.RawTensor:
		inputs := make([]*tensor.RawTensor, 0, len(desc.Inputs))
		for i, t := range s {
			if i >= len(desc.Inputs) {
				break
			}
			inputs = append(inputs, t.To(device))
		}
		if len(inputs) < len(desc.Inputs) {
			return nil, fmt.Errorf("%w: sample has %d tensors for %d declared inputs", ErrUnsupportedInputContainer, len(s), len(desc.Inputs))
		}
		return inputs, nil
	default:
		return nil, fmt.Errorf("%w: %T (want a tensor, a map keyed by input name, or a tensor slice)", ErrUnsupportedInputContainer, sample)
	}
}
