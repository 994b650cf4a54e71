package nn

import (
	"fmt"

	"github.com/born-ml/traingraph/internal/tensor"
)

// MSELoss computes mean squared error: mean((prediction - target)^2).
// The result is a scalar tensor, suitable as the designated loss output.
type MSELoss struct {
	backend tensor.Backend
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss(backend tensor.Backend) *MSELoss {
	return &MSELoss{backend: backend}
}

// Forward computes the loss for (prediction, target).
func (m *MSELoss) Forward(prediction, target *tensor.RawTensor) (*tensor.RawTensor, error) {
	if !prediction.Shape().Equal(target.Shape()) {
		return nil, fmt.Errorf("MSELoss: prediction shape %v does not match target shape %v",
			prediction.Shape(), target.Shape())
	}

	diff := m.backend.Sub(prediction, target)
	squared := m.backend.Mul(diff, diff)
	return m.backend.Mean(squared), nil
}

// SetBackend swaps the compute backend used by Forward.
func (m *MSELoss) SetBackend(backend tensor.Backend) {
	m.backend = backend
}

// Backend returns the current compute backend.
func (m *MSELoss) Backend() tensor.Backend {
	return m.backend
}
