package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/traingraph/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W + b where W has
// shape [in_features, out_features] and b has shape [out_features].
//
// Weights are initialized with Xavier/Glorot uniform, biases with zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [in_features, out_features]
	bias        *Parameter // [out_features]
	backend     tensor.Backend
}

// NewLinear creates a new Linear layer on the given backend.
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	limit := float32(math.Sqrt(6.0 / float64(inFeatures+outFeatures)))
	weightData := make([]float32, inFeatures*outFeatures)
	for i := range weightData {
		weightData[i] = (rand.Float32()*2 - 1) * limit
	}
	weight, err := tensor.FromFloat32(weightData, tensor.Shape{inFeatures, outFeatures}, backend.Device())
	if err != nil {
		panic(err)
	}
	biasT, err := tensor.NewRaw(tensor.Shape{outFeatures}, tensor.Float32, backend.Device())
	if err != nil {
		panic(err)
	}

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", biasT),
		backend:     backend,
	}
}

// Forward computes y = x @ W + b for a [batch, in_features] input.
func (l *Linear) Forward(inputs ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("Linear.Forward: expected 1 input, got %d", len(inputs))
	}
	input := inputs[0]
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		return nil, fmt.Errorf("Linear.Forward: expected input shape [batch, %d], got %v", l.inFeatures, shape)
	}

	out := l.backend.MatMul(input, l.weight.Tensor())
	out = l.backend.Add(out, l.bias.Tensor())
	return []*tensor.RawTensor{out}, nil
}

// NamedParameters returns the weight and bias parameters.
func (l *Linear) NamedParameters() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		l.weight.Name(): l.weight.Tensor(),
		l.bias.Name():   l.bias.Tensor(),
	}
}

// To moves the layer parameters to the given device.
func (l *Linear) To(device tensor.Device) {
	l.weight.To(device)
	l.bias.To(device)
}

// SetBackend swaps the compute backend used by Forward. The trace exporter
// uses this to route the sample forward pass through a recording backend.
func (l *Linear) SetBackend(backend tensor.Backend) {
	l.backend = backend
}

// Backend returns the current compute backend.
func (l *Linear) Backend() tensor.Backend {
	return l.backend
}
