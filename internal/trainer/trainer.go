// Package trainer owns the training lifecycle: it binds the user's model
// form, converts it into a training-annotated ONNX graph exactly once,
// lazily, before the first step, and dispatches steps over the built graph.
package trainer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/born-ml/traingraph/internal/export"
	"github.com/born-ml/traingraph/internal/nn"
	"github.com/born-ml/traingraph/internal/onnx"
	"github.com/born-ml/traingraph/internal/schema"
	"github.com/born-ml/traingraph/internal/tensor"
	"github.com/born-ml/traingraph/internal/trace"
	"github.com/born-ml/traingraph/optim"
)

// Lifecycle errors.
var (
	// ErrNotBuilt indicates an operation that needs the exported graph was
	// called before the first step built it.
	ErrNotBuilt = errors.New("graph not built yet")

	// ErrNoBackend indicates a step call without an execution backend.
	ErrNoBackend = errors.New("no execution backend configured")
)

// Trainer converts a trainable computation description into a single
// portable training-annotated graph and reuses it for all subsequent steps.
//
// The graph build is lazy: tracing needs concrete sample tensors, which are
// only available at the first step call. The Uninitialized -> Built
// transition happens at most once per Trainer; a failed export leaves the
// state Uninitialized so the next step retries from scratch.
type Trainer struct {
	binding     *Binding
	desc        *schema.Descriptor
	optimConfig optim.Config
	opts        Options

	mu       sync.Mutex
	built    *onnx.ModelProto // nil while Uninitialized
	exec     *onnx.Model      // compiled view, built alongside the graph
	stepInfo TrainStepInfo
	exports  int // completed export count, for invariant checks in tests
}

// New validates the (model, loss) pair against the descriptor and builds an
// Uninitialized trainer. A loss-combining binding requires the descriptor to
// flag a loss output. Precomputed-graph bindings are Built immediately since
// there is nothing to export.
func New(model any, desc *schema.Descriptor, optimConfig optim.Config, lossFn nn.Loss, opts Options) (*Trainer, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: descriptor is required", schema.ErrMalformedSchema)
	}

	binding, err := Bind(model, lossFn)
	if err != nil {
		return nil, err
	}
	if binding.LossFn() != nil && desc.LossOutput() == nil {
		return nil, fmt.Errorf("%w: a loss output must be flagged when a loss function is supplied", schema.ErrMalformedSchema)
	}

	t := &Trainer{
		binding:     binding,
		desc:        desc,
		optimConfig: optimConfig,
		opts:        opts,
		stepInfo:    TrainStepInfo{OptimizerConfig: optimConfig},
	}

	if binding.IsGraph() {
		t.built = binding.Graph()
	}
	return t, nil
}

// TrainStep runs one training step. The first call triggers the lazy graph
// build using data as the tracing sample; later calls reuse the built graph.
// Returns the ordered output tensors declared by the descriptor.
func (t *Trainer) TrainStep(data ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	outputs, err := t.step("train", data)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	step := 0
	if t.stepInfo.Step != nil {
		step = *t.stepInfo.Step + 1
	}
	allFinite := true
	for _, out := range outputs {
		if !out.AllFinite() {
			allFinite = false
			break
		}
	}
	t.stepInfo = TrainStepInfo{AllFinite: &allFinite, Step: &step, OptimizerConfig: t.optimConfig}
	t.mu.Unlock()

	return outputs, nil
}

// EvalStep runs one evaluation step over the built graph. Like TrainStep it
// triggers the lazy build on first call, but does not touch TrainStepInfo.
func (t *Trainer) EvalStep(data ...*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return t.step("eval", data)
}

// Save writes the built graph to path as a single self-contained ONNX
// artifact. Fails with ErrNotBuilt before the first step.
func (t *Trainer) Save(path string) error {
	t.mu.Lock()
	built := t.built
	t.mu.Unlock()

	if built == nil {
		return fmt.Errorf("%w: call a step first so the graph can be traced", ErrNotBuilt)
	}
	return onnx.WriteFile(built, path)
}

// StepInfo returns the information recorded by the last train step.
func (t *Trainer) StepInfo() TrainStepInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stepInfo
}

// Graph returns the built graph, or nil while Uninitialized. The returned
// graph is shared and must be treated as read-only.
func (t *Trainer) Graph() *onnx.ModelProto {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.built
}

// Exports returns how many exports have completed. Never exceeds 1.
func (t *Trainer) Exports() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exports
}

func (t *Trainer) step(mode string, data []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := t.ensureBuilt(data); err != nil {
		return nil, err
	}
	t.opts.Metrics.ObserveStep(mode)

	t.mu.Lock()
	exec := t.exec
	t.mu.Unlock()

	if exec == nil {
		return nil, ErrNoBackend
	}
	outputs, err := exec.Run(data...)
	if err != nil {
		return nil, fmt.Errorf("%s step: %w", mode, err)
	}
	return outputs, nil
}

// ensureBuilt performs the Uninitialized -> Built transition under a single
// lock acquisition: exactly one caller exports, racers block and then reuse
// the built graph. On failure the state stays Uninitialized and the next
// step retries the export from scratch.
func (t *Trainer) ensureBuilt(sample []*tensor.RawTensor) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.built != nil {
		if t.exec == nil && t.opts.Backend != nil {
			return t.compileLocked()
		}
		return nil
	}

	log := t.opts.logger()
	log.Debug("exporting training graph",
		"inputs", t.desc.InputNames(),
		"outputs", t.desc.OutputNames(),
		"device", t.opts.Device.String())

	tracer := t.opts.Tracer
	if tracer == nil {
		tracer = trace.New()
	}

	start := time.Now()
	model, err := export.Export(t.binding.Module(), t.binding.LossFn(), t.desc, t.opts.Device, sample, tracer, t.opts.OpsetVersion)
	if err != nil {
		return err
	}

	if err := export.Reconcile(model, export.WrapperPrefix, t.binding.Module().NamedParameters()); err != nil {
		return err
	}

	// Internal normalization first, then the optional user pass. Pass
	// failures propagate unchanged.
	if err := export.RunPasses(model, export.Normalize(), t.opts.Postprocess); err != nil {
		return err
	}

	t.built = model
	t.exports++
	t.opts.Metrics.ObserveExport(time.Since(start))
	log.Debug("training graph built",
		"nodes", len(model.Graph.Nodes),
		"initializers", len(model.Graph.Initializers),
		"duration", time.Since(start))

	if t.opts.Backend != nil {
		return t.compileLocked()
	}
	return nil
}

// compileLocked prepares the executable view of the built graph.
// Caller holds t.mu.
func (t *Trainer) compileLocked() error {
	exec, err := onnx.NewModel(t.built, t.opts.Backend, nil)
	if err != nil {
		return fmt.Errorf("compile built graph: %w", err)
	}
	t.exec = exec
	return nil
}
