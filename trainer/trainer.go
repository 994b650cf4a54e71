// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trainer converts a differentiable module plus loss function (or a
// precomputed graph) into a single training-annotated ONNX model, lazily,
// exactly once, before the first step runs.
//
// Example:
//
//	desc, err := trainer.LoadDescriptor("model.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, err := trainer.New(model, desc, optim.SGDConfig{LearningRate: 0.01}, nn.NewMSELoss(backend), trainer.Options{
//	    Backend: backend,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outputs, err := t.TrainStep(x, target)
package trainer

import (
	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/schema"
	"github.com/born-ml/traingraph/internal/trainer"
	"github.com/born-ml/traingraph/optim"
)

// Trainer owns the lazily-built training graph and steps through it.
type Trainer = trainer.Trainer

// Options carries construction-time knobs for a Trainer.
type Options = trainer.Options

// TrainStepInfo carries per-step state between the trainer and optimizer.
type TrainStepInfo = trainer.TrainStepInfo

// Descriptor declares the model's input and output tensor signatures.
type Descriptor = schema.Descriptor

// TensorSpec describes one named tensor in a Descriptor.
type TensorSpec = schema.TensorSpec

// Dim is one dimension of a tensor shape, concrete or symbolic.
type Dim = schema.Dim

// Errors surfaced by construction and stepping.
var (
	ErrMalformedSchema        = schema.ErrMalformedSchema
	ErrMultipleLossOutputs    = schema.ErrMultipleLossOutputs
	ErrUnsupportedCombination = trainer.ErrUnsupportedCombination
	ErrUnrecognizedModelType  = trainer.ErrUnrecognizedModelType
	ErrNotBuilt               = trainer.ErrNotBuilt
	ErrNoBackend              = trainer.ErrNoBackend
)

// New builds a Trainer from a model (a differentiable module or a parsed
// ONNX graph), its schema descriptor, an optimizer config, and an optional
// loss function. Graph construction is deferred to the first step.
func New(model any, desc *Descriptor, cfg optim.Config, lossFn nn.Loss, opts Options) (*Trainer, error) {
	return trainer.New(model, desc, cfg, lossFn, opts)
}

// NewTrainStepInfo validates and builds per-step state.
func NewTrainStepInfo(allFinite *bool, step *int, cfg optim.Config) (TrainStepInfo, error) {
	return trainer.NewTrainStepInfo(allFinite, step, cfg)
}

// DecodeOptions builds Options from a loosely-typed map, as read from a
// config file.
func DecodeOptions(raw map[string]any) (Options, error) {
	return trainer.DecodeOptions(raw)
}

// ValidateDescriptor checks a loosely-typed schema map and converts it into
// a Descriptor.
func ValidateDescriptor(raw map[string]any) (*Descriptor, error) {
	return schema.Validate(raw)
}

// LoadDescriptor reads and validates a YAML schema file.
func LoadDescriptor(path string) (*Descriptor, error) {
	return schema.LoadFile(path)
}

// DynamicAxes extracts the symbolic-dimension mapping from a descriptor,
// keyed by tensor name then dimension index.
func DynamicAxes(desc *Descriptor) map[string]map[int]string {
	return schema.DynamicAxes(desc)
}
