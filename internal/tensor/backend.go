package tensor

// Backend defines the compute interface the export frontend needs: the
// operations a traced forward pass may perform. Implementations:
//
//   - backend/cpu: pure Go reference backend
//   - trace: recording decorator that wraps any Backend and logs every
//     operation for graph export
type Backend interface {
	// Element-wise binary operations.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // 2D matrix multiplication.

	// Activation functions.
	Relu(x *RawTensor) *RawTensor             // max(x, 0).
	Softmax(x *RawTensor, dim int) *RawTensor // Softmax along dimension.

	// Reduction operations (scalar result, shape [1]).
	Sum(x *RawTensor) *RawTensor  // Total sum.
	Mean(x *RawTensor) *RawTensor // Total mean.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}
