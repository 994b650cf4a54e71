package trainer

import (
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/born-ml/traingraph/internal/export"
	"github.com/born-ml/traingraph/internal/metrics"
	"github.com/born-ml/traingraph/internal/tensor"
)

// Options configures a Trainer beyond the required model and descriptor.
// The zero value is usable: CPU device, built-in tracer, default opset,
// no user postprocess pass, slog default logger, metrics disabled.
type Options struct {
	// Device tensors are moved to for the sample forward evaluation.
	// Tracing itself always runs on CPU.
	Device tensor.Device

	// Backend executes step dispatch over the built graph. Required for
	// step calls; Save works without it.
	Backend tensor.Backend

	// Tracer overrides the trace-export backend.
	Tracer export.Tracer

	// Postprocess is the optional user-supplied graph pass, applied after
	// the internal normalization pass.
	Postprocess export.Pass

	// OpsetVersion targets a specific ONNX opset; 0 means the default.
	OpsetVersion int64

	// Logger receives structured trainer events. Nil means slog.Default.
	Logger *slog.Logger

	// Metrics receives step and export observations. Nil disables them.
	Metrics *metrics.Metrics
}

// rawOptions is the decodable subset of Options, for configuration
// supplied as a generic map (e.g., parsed from a config file).
type rawOptions struct {
	Device       string `mapstructure:"device"`
	OpsetVersion int64  `mapstructure:"opset_version"`
}

// DecodeOptions builds Options from a raw configuration map. Only the
// primitive fields are decodable; capability fields (backend, tracer,
// passes) are wired in code.
func DecodeOptions(raw map[string]any) (Options, error) {
	var decoded rawOptions
	if err := mapstructure.Decode(raw, &decoded); err != nil {
		return Options{}, fmt.Errorf("invalid trainer options: %w", err)
	}

	opts := Options{OpsetVersion: decoded.OpsetVersion}
	switch decoded.Device {
	case "", "cpu":
		opts.Device = tensor.CPU
	case "cuda":
		opts.Device = tensor.CUDA
	case "webgpu":
		opts.Device = tensor.WebGPU
	default:
		return Options{}, fmt.Errorf("invalid trainer options: unknown device %q", decoded.Device)
	}
	return opts, nil
}

// logger returns the configured logger or the process default.
func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
