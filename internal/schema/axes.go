package schema

// DynamicAxes derives the dynamic-axis map from a validated descriptor:
// tensor name -> {dimension index -> symbolic name}. Tensors with no
// symbolic dimension are omitted entirely.
//
// Example: an input ("x", ["batch", 128]) contributes {"x": {0: "batch"}}.
func DynamicAxes(desc *Descriptor) map[string]map[int]string {
	axes := make(map[string]map[int]string)
	collect := func(specs []TensorSpec) {
		for _, spec := range specs {
			var symbolic map[int]string
			for i, dim := range spec.Shape {
				if dim.IsSymbolic() {
					if symbolic == nil {
						symbolic = make(map[int]string)
					}
					symbolic[i] = dim.Param
				}
			}
			if symbolic != nil {
				axes[spec.Name] = symbolic
			}
		}
	}
	collect(desc.Inputs)
	collect(desc.Outputs)
	return axes
}
