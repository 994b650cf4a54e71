package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/traingraph/internal/onnx"
	"github.com/born-ml/traingraph/internal/tensor"
)

// Reconcile strips the synthetic wrapper prefix from exported initializer
// names, rewrites every node input that referenced an old name, and then
// verifies that every named parameter of the source module appears among the
// post-rename initializers. The graph is rewritten in place.
//
// The params map holds the source module's parameters keyed by their
// unprefixed names. A mismatch signals an export defect, not a user error:
// the graph may also contain non-trainable buffers, so the check is a subset
// check, not equality.
func Reconcile(model *onnx.ModelProto, prefix string, params map[string]*tensor.RawTensor) error {
	if model.Graph == nil {
		return fmt.Errorf("%w: exported model has no graph", ErrInitializerMismatch)
	}
	graph := model.Graph

	renames := make(map[string]string)
	for i := range graph.Initializers {
		name := graph.Initializers[i].Name
		if strings.HasPrefix(name, prefix) {
			renamed := name[len(prefix):]
			renames[name] = renamed
			graph.Initializers[i].Name = renamed
		}
	}

	// One consistent substitution pass: renames are keyed by exact name,
	// so node visitation order does not matter.
	for i := range graph.Nodes {
		for j, input := range graph.Nodes[i].Inputs {
			if renamed, ok := renames[input]; ok {
				graph.Nodes[i].Inputs[j] = renamed
			}
		}
	}
	for i := range graph.Inputs {
		if renamed, ok := renames[graph.Inputs[i].Name]; ok {
			graph.Inputs[i].Name = renamed
		}
	}

	initNames := make(map[string]bool, len(graph.Initializers))
	for i := range graph.Initializers {
		initNames[graph.Initializers[i].Name] = true
	}

	var missing []string
	for name := range params {
		unprefixed := strings.TrimPrefix(name, prefix)
		if !initNames[unprefixed] {
			missing = append(missing, unprefixed)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing parameters %v", ErrInitializerMismatch, missing)
	}
	return nil
}
