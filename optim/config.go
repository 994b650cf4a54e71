// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizer configuration value objects. The trainer
// core does not interpret them; they ride along on TrainStepInfo for
// learning-rate schedulers and loss scalers owned by the execution backend.
package optim

// Config is the common optimizer configuration capability.
type Config interface {
	// Name identifies the optimizer algorithm (e.g., "SGD", "Adam").
	Name() string

	// LR returns the base learning rate.
	LR() float32
}

// SGDConfig configures stochastic gradient descent with optional momentum.
type SGDConfig struct {
	LearningRate float32 // Base learning rate (default 0.01).
	Momentum     float32 // Momentum factor, range [0, 1).
}

// Name implements Config.
func (c SGDConfig) Name() string { return "SGD" }

// LR implements Config.
func (c SGDConfig) LR() float32 {
	if c.LearningRate == 0 {
		return 0.01
	}
	return c.LearningRate
}

// AdamConfig configures adaptive moment estimation.
type AdamConfig struct {
	LearningRate float32 // Base learning rate (default 0.001).
	Beta1        float32 // First-moment decay (default 0.9).
	Beta2        float32 // Second-moment decay (default 0.999).
	Eps          float32 // Numerical stability term (default 1e-8).
}

// Name implements Config.
func (c AdamConfig) Name() string { return "Adam" }

// LR implements Config.
func (c AdamConfig) LR() float32 {
	if c.LearningRate == 0 {
		return 0.001
	}
	return c.LearningRate
}
