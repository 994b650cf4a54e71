package export

import (
	"fmt"

	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/tensor"
)

// WrapperPrefix is the synthetic name prefix the wrapper introduces on the
// wrapped module's parameters. The reconciler strips it again after export.
const WrapperPrefix = "model_."

// backendSwapper lets the tracer reroute a module's compute through a
// recording backend for the duration of the traced forward pass.
type backendSwapper interface {
	SetBackend(backend tensor.Backend)
	Backend() tensor.Backend
}

// wrapper combines a module and an optional loss function into a single
// callable with unambiguous positional inputs. When a loss function is
// present the last declared input is the loss target, and the combined
// output order is the loss followed by the module's outputs.
type wrapper struct {
	model   nn.Module
	lossFn  nn.Loss
	nInputs int
}

func wrap(module nn.Module, lossFn nn.Loss, nInputs int) *wrapper {
	return &wrapper{model: module, lossFn: lossFn, nInputs: nInputs}
}

// Forward evaluates the wrapped module (and loss) on positional inputs
// ordered exactly as the descriptor declares them.
func (w *wrapper) Forward(inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != w.nInputs {
		return nil, fmt.Errorf("wrapped callable expects %d inputs, got %d", w.nInputs, len(inputs))
	}

	if w.lossFn == nil {
		return w.model.Forward(inputs...)
	}

	if len(inputs) < 2 {
		return nil, fmt.Errorf("loss-combining callable needs a model input and a target, got %d inputs", len(inputs))
	}
	modelOutputs, err := w.model.Forward(inputs[:len(inputs)-1]...)
	if err != nil {
		return nil, err
	}
	if len(modelOutputs) == 0 {
		return nil, fmt.Errorf("module produced no outputs")
	}

	target := inputs[len(inputs)-1]
	loss, err := w.lossFn.Forward(modelOutputs[0], target)
	if err != nil {
		return nil, err
	}
	return append([]*tensor.RawTensor{loss}, modelOutputs...), nil
}

// NamedParameters returns the module's parameters under the synthetic
// wrapper prefix, mirroring what the traced graph's initializers carry.
func (w *wrapper) NamedParameters() map[string]*tensor.RawTensor {
	params := w.model.NamedParameters()
	prefixed := make(map[string]*tensor.RawTensor, len(params))
	for name, t := range params {
		prefixed[WrapperPrefix+name] = t
	}
	return prefixed
}

// To moves the wrapped module's parameters to the given device.
func (w *wrapper) To(device tensor.Device) {
	w.model.To(device)
}

// SetBackend reroutes the wrapped module's (and loss's) compute.
func (w *wrapper) SetBackend(backend tensor.Backend) {
	if m, ok := w.model.(backendSwapper); ok {
		m.SetBackend(backend)
	}
	if l, ok := w.lossFn.(backendSwapper); ok {
		l.SetBackend(backend)
	}
}

// Backend returns the wrapped module's current compute backend, or nil when
// the module does not expose one.
func (w *wrapper) Backend() tensor.Backend {
	if m, ok := w.model.(backendSwapper); ok {
		return m.Backend()
	}
	return nil
}
