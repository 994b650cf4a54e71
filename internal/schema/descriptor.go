// Package schema validates and normalizes the user-supplied model
// description: input/output tensor names, symbolic shapes, the designated
// loss output, and the dynamic-axis map derived from them.
package schema

import (
	"errors"
	"fmt"

	"github.com/born-ml/traingraph/internal/tensor"
)

// Descriptor validation errors.
var (
	// ErrMalformedSchema indicates the raw schema does not follow the
	// {inputs: [(name, shape)], outputs: [(name, shape, is_loss)]} form.
	ErrMalformedSchema = errors.New("malformed model schema")

	// ErrMultipleLossOutputs indicates more than one output is flagged as
	// the loss. Only one loss output is supported per model.
	ErrMultipleLossOutputs = errors.New("multiple loss outputs")
)

// Dim is a single shape dimension: either a static value or a symbolic
// (dynamic-axis) name. Exactly one of the two fields is set.
type Dim struct {
	Value int64  // Static dimension size.
	Param string // Symbolic dimension name (e.g., "batch").
}

// IsSymbolic reports whether the dimension is a named dynamic axis.
func (d Dim) IsSymbolic() bool {
	return d.Param != ""
}

// String renders the dimension the way it appears in a raw schema.
func (d Dim) String() string {
	if d.IsSymbolic() {
		return d.Param
	}
	return fmt.Sprintf("%d", d.Value)
}

// TensorSpec describes one declared model input or output.
type TensorSpec struct {
	Name   string
	Shape  []Dim           // Empty shape denotes a scalar.
	DType  tensor.DataType // Recorded from the sample forward pass during export.
	HasDT  bool            // Whether DType has been recorded yet.
	IsLoss bool            // Marks the single designated loss output.
}

// Descriptor is the validated, normalized model description. It is immutable
// after Validate except for the runtime-observed output dtypes recorded by
// the exporter. Input order is the positional binding order of the source
// module's call signature.
type Descriptor struct {
	Inputs  []TensorSpec
	Outputs []TensorSpec
}

// Validate builds a Descriptor from a raw schema mapping. The mapping must
// have exactly the keys "inputs" and "outputs"; each entry is a sequence
// (name, shape[, is_loss]) where shape elements are ints (static) or strings
// (symbolic). At most one output may be flagged as the loss.
func Validate(raw map[string]any) (*Descriptor, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("%w: expected exactly the keys \"inputs\" and \"outputs\", got %d keys", ErrMalformedSchema, len(raw))
	}
	rawInputs, ok := raw["inputs"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"inputs\" key", ErrMalformedSchema)
	}
	rawOutputs, ok := raw["outputs"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"outputs\" key", ErrMalformedSchema)
	}

	desc := &Descriptor{}
	var err error
	if desc.Inputs, err = parseSpecs(rawInputs, false); err != nil {
		return nil, err
	}
	if desc.Outputs, err = parseSpecs(rawOutputs, true); err != nil {
		return nil, err
	}

	var lossNames []string
	for _, out := range desc.Outputs {
		if out.IsLoss {
			lossNames = append(lossNames, out.Name)
		}
	}
	if len(lossNames) > 1 {
		return nil, fmt.Errorf("%w: %v", ErrMultipleLossOutputs, lossNames)
	}

	return desc, nil
}

// LossOutput returns the designated loss output spec, or nil if none.
func (d *Descriptor) LossOutput() *TensorSpec {
	for i := range d.Outputs {
		if d.Outputs[i].IsLoss {
			return &d.Outputs[i]
		}
	}
	return nil
}

// InputNames returns input names in declared (positional) order.
func (d *Descriptor) InputNames() []string {
	return specNames(d.Inputs)
}

// OutputNames returns output names in declared order.
func (d *Descriptor) OutputNames() []string {
	return specNames(d.Outputs)
}

func specNames(specs []TensorSpec) []string {
	names := make([]string, len(specs))
	for i := range specs {
		names[i] = specs[i].Name
	}
	return names
}

func parseSpecs(raw any, allowLoss bool) ([]TensorSpec, error) {
	entries, ok := asSlice(raw)
	if !ok {
		return nil, fmt.Errorf("%w: expected a sequence of (name, shape) entries, got %T", ErrMalformedSchema, raw)
	}

	specs := make([]TensorSpec, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		spec, err := parseSpec(entry, allowLoss)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: duplicate tensor name %q", ErrMalformedSchema, spec.Name)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseSpec(entry any, allowLoss bool) (TensorSpec, error) {
	fields, ok := asSlice(entry)
	if !ok || len(fields) < 2 || len(fields) > 3 {
		return TensorSpec{}, fmt.Errorf("%w: each entry must be (name, shape[, is_loss]), got %v", ErrMalformedSchema, entry)
	}

	name, ok := fields[0].(string)
	if !ok || name == "" {
		return TensorSpec{}, fmt.Errorf("%w: tensor name must be a non-empty string, got %v", ErrMalformedSchema, fields[0])
	}

	rawShape, ok := asSlice(fields[1])
	if !ok {
		return TensorSpec{}, fmt.Errorf("%w: shape of %q must be a sequence, got %T", ErrMalformedSchema, name, fields[1])
	}
	shape := make([]Dim, 0, len(rawShape))
	for i, rawDim := range rawShape {
		dim, err := parseDim(rawDim)
		if err != nil {
			return TensorSpec{}, fmt.Errorf("%w: shape of %q, dimension %d: %v", ErrMalformedSchema, name, i, err)
		}
		shape = append(shape, dim)
	}

	spec := TensorSpec{Name: name, Shape: shape}
	if len(fields) == 3 {
		if !allowLoss {
			return TensorSpec{}, fmt.Errorf("%w: input %q must not carry an is_loss flag", ErrMalformedSchema, name)
		}
		isLoss, ok := fields[2].(bool)
		if !ok {
			return TensorSpec{}, fmt.Errorf("%w: is_loss of %q must be a bool, got %T", ErrMalformedSchema, name, fields[2])
		}
		spec.IsLoss = isLoss
	}
	return spec, nil
}

func parseDim(raw any) (Dim, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return Dim{}, errors.New("symbolic name must be non-empty")
		}
		return Dim{Param: v}, nil
	case int:
		if v <= 0 {
			return Dim{}, fmt.Errorf("static size must be positive, got %d", v)
		}
		return Dim{Value: int64(v)}, nil
	case int64:
		if v <= 0 {
			return Dim{}, fmt.Errorf("static size must be positive, got %d", v)
		}
		return Dim{Value: v}, nil
	default:
		return Dim{}, fmt.Errorf("must be an int or string, got %T", raw)
	}
}

// asSlice normalizes []any and typed slices into []any.
func asSlice(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
