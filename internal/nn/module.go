package nn

import (
	"github.com/born-ml/traingraph/internal/tensor"
)

// Module is the native differentiable module capability the trainer accepts:
// a callable over positional tensor arguments that exposes enumerable named
// parameters and device transfer.
type Module interface {
	// Forward computes the module outputs for the given positional inputs.
	// Argument order is the module's call signature; the trainer binds the
	// descriptor's declared inputs to it positionally.
	Forward(inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error)

	// NamedParameters returns all trainable parameters keyed by name
	// (e.g., "weight", "bias"). These names must survive graph export as
	// initializer names.
	NamedParameters() map[string]*tensor.RawTensor

	// To moves the module's parameters to the given device.
	To(device tensor.Device)
}

// Loss is a loss function combined with a module during export. It takes
// exactly two positional arguments, (prediction, target), and returns a
// scalar loss tensor.
type Loss interface {
	Forward(prediction, target *tensor.RawTensor) (*tensor.RawTensor, error)
}

// Parameter represents a single trainable parameter.
type Parameter struct {
	name   string
	tensor *tensor.RawTensor
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// To moves the parameter tensor to the given device.
func (p *Parameter) To(device tensor.Device) {
	p.tensor = p.tensor.To(device)
}
