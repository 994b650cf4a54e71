// Package onnx implements the portable computation graph representation the
// trainer exports to: a hand-written protobuf wire codec over the ONNX model
// format (parser and writer), plus a small executable view used as the
// default execution backend for step dispatch.
package onnx
