package trainer

import (
	"fmt"

	"github.com/born-ml/traingraph/optim"
)

// TrainStepInfo stores runtime information from the current train step.
// The trainer overwrites it after every step; learning-rate schedulers and
// loss scalers read it but never mutate it.
type TrainStepInfo struct {
	// AllFinite reports whether every output of the last step was finite.
	// Nil before the first train step.
	AllFinite *bool

	// Step is the zero-based index of the last completed train step.
	// Nil before the first train step.
	Step *int

	// OptimizerConfig is an opaque reference to the optimizer
	// configuration; the trainer core does not interpret it.
	OptimizerConfig optim.Config
}

// NewTrainStepInfo validates and builds a step info value. Step, when set,
// must be non-negative.
func NewTrainStepInfo(allFinite *bool, step *int, cfg optim.Config) (TrainStepInfo, error) {
	if step != nil && *step < 0 {
		return TrainStepInfo{}, fmt.Errorf("step must be non-negative, got %d", *step)
	}
	return TrainStepInfo{AllFinite: allFinite, Step: step, OptimizerConfig: cfg}, nil
}
