// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the native module and loss capabilities the trainer
// accepts, plus small reference modules.
//
// A Module is anything callable with positional tensor arguments that
// exposes enumerable named parameters and device transfer:
//
//	model := nn.NewLinear(4, 1, backend)
//	outputs, err := model.Forward(input)
//	params := model.NamedParameters() // {"weight": ..., "bias": ...}
//
// A Loss takes exactly two positional arguments, (prediction, target), and
// returns a scalar loss tensor. When supplied to the trainer it is combined
// with the module into a single exported graph whose first output is the
// loss.
package nn

import (
	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/tensor"
)

// Module is the native differentiable module capability.
type Module = nn.Module

// Loss is the loss-function capability.
type Loss = nn.Loss

// Parameter represents a single trainable parameter.
type Parameter = nn.Parameter

// Linear is a fully connected layer: y = x @ W + b.
type Linear = nn.Linear

// MSELoss computes mean squared error.
type MSELoss = nn.MSELoss

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// NewLinear creates a new Linear layer on the given backend.
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss(backend tensor.Backend) *MSELoss {
	return nn.NewMSELoss(backend)
}
