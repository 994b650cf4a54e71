package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Marshal serializes an ONNX model to protobuf wire format. The encoder is
// the mirror image of the parser in this package and emits only the fields
// the struct mirror carries.
func Marshal(m *ModelProto) []byte {
	w := &writer{}
	w.writeModelProto(m)
	return w.buf
}

// WriteFile serializes the model and writes it to path as a single
// self-contained ONNX artifact.
func WriteFile(m *ModelProto, path string) error {
	if err := os.WriteFile(path, Marshal(m), 0o600); err != nil {
		return fmt.Errorf("failed to write ONNX file: %w", err)
	}
	return nil
}

// writer implements a minimal protobuf wire format encoder.
type writer struct {
	buf []byte
}

func (w *writer) writeModelProto(m *ModelProto) {
	w.writeVarintField(1, m.IRVersion)
	w.writeStringField(2, m.ProducerName)
	w.writeStringField(3, m.ProducerVersion)
	w.writeStringField(4, m.Domain)
	w.writeVarintField(5, m.ModelVersion)
	w.writeStringField(6, m.DocString)
	if m.Graph != nil {
		w.writeMessageField(7, func(sub *writer) { sub.writeGraphProto(m.Graph) })
	}
	for i := range m.OpsetImport {
		opset := &m.OpsetImport[i]
		w.writeMessageField(8, func(sub *writer) {
			sub.writeStringField(1, opset.Domain)
			sub.writeVarintField(2, opset.Version)
		})
	}
	for i := range m.MetadataProps {
		entry := &m.MetadataProps[i]
		w.writeMessageField(14, func(sub *writer) {
			sub.writeStringField(1, entry.Key)
			sub.writeStringField(2, entry.Value)
		})
	}
}

func (w *writer) writeGraphProto(m *GraphProto) {
	for i := range m.Nodes {
		node := &m.Nodes[i]
		w.writeMessageField(1, func(sub *writer) { sub.writeNodeProto(node) })
	}
	w.writeStringField(2, m.Name)
	for i := range m.Initializers {
		t := &m.Initializers[i]
		w.writeMessageField(5, func(sub *writer) { sub.writeTensorProto(t) })
	}
	w.writeStringField(10, m.DocString)
	for i := range m.Inputs {
		v := &m.Inputs[i]
		w.writeMessageField(11, func(sub *writer) { sub.writeValueInfoProto(v) })
	}
	for i := range m.Outputs {
		v := &m.Outputs[i]
		w.writeMessageField(12, func(sub *writer) { sub.writeValueInfoProto(v) })
	}
}

func (w *writer) writeNodeProto(m *NodeProto) {
	for _, in := range m.Inputs {
		w.writeStringField(1, in)
	}
	for _, out := range m.Outputs {
		w.writeStringField(2, out)
	}
	w.writeStringField(3, m.Name)
	w.writeStringField(4, m.OpType)
	for i := range m.Attributes {
		attr := &m.Attributes[i]
		w.writeMessageField(5, func(sub *writer) { sub.writeAttributeProto(attr) })
	}
	w.writeStringField(7, m.Domain)
}

func (w *writer) writeTensorProto(m *TensorProto) {
	for _, d := range m.Dims {
		w.writeVarintField(1, d)
	}
	w.writeVarintField(2, int64(m.DataType))
	if len(m.FloatData) > 0 {
		w.writePackedFloats(4, m.FloatData)
	}
	if len(m.Int64Data) > 0 {
		w.writePackedVarints(7, m.Int64Data)
	}
	w.writeStringField(8, m.Name)
	if len(m.RawData) > 0 {
		w.writeBytesField(9, m.RawData)
	}
}

func (w *writer) writeValueInfoProto(m *ValueInfoProto) {
	w.writeStringField(1, m.Name)
	if m.Type == nil {
		return
	}
	w.writeMessageField(2, func(sub *writer) {
		if m.Type.TensorType == nil {
			return
		}
		sub.writeMessageField(1, func(tt *writer) {
			tt.writeVarintField(1, int64(m.Type.TensorType.ElemType))
			if m.Type.TensorType.Shape == nil {
				return
			}
			tt.writeMessageField(2, func(sh *writer) {
				for i := range m.Type.TensorType.Shape.Dims {
					dim := &m.Type.TensorType.Shape.Dims[i]
					sh.writeMessageField(1, func(d *writer) {
						if dim.DimParam != "" {
							d.writeStringField(2, dim.DimParam)
						} else {
							d.writeVarintField(1, dim.DimValue)
						}
					})
				}
			})
		})
	})
}

func (w *writer) writeAttributeProto(m *AttributeProto) {
	w.writeStringField(1, m.Name)
	switch m.Type {
	case AttributeProtoFloat:
		w.writeFloat32Field(2, m.F)
	case AttributeProtoInt:
		w.writeVarintField(3, m.I)
	case AttributeProtoString:
		w.writeBytesField(4, m.S)
	case AttributeProtoFloats:
		w.writePackedFloats(7, m.Floats)
	case AttributeProtoInts:
		w.writePackedVarints(8, m.Ints)
	case AttributeProtoStrings:
		for _, s := range m.Strings {
			w.writeBytesField(9, s)
		}
	}
	w.writeTag(20, wireVarint)
	w.writeVarint(int64(m.Type))
}

// writeTag writes a protobuf field tag.
func (w *writer) writeTag(fieldNum, wireType int) {
	w.writeVarint(int64(fieldNum<<3 | wireType))
}

// writeVarint appends a varint-encoded int64.
func (w *writer) writeVarint(v int64) {
	w.buf = binary.AppendUvarint(w.buf, uint64(v)) //nolint:gosec // G115: Two's complement round-trips through uint64.
}

// writeVarintField writes a varint field, omitting the zero value.
func (w *writer) writeVarintField(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	w.writeTag(fieldNum, wireVarint)
	w.writeVarint(v)
}

// writeBytesField writes a length-delimited field.
func (w *writer) writeBytesField(fieldNum int, data []byte) {
	w.writeTag(fieldNum, wireBytes)
	w.writeVarint(int64(len(data)))
	w.buf = append(w.buf, data...)
}

// writeStringField writes a string field, omitting the empty string.
func (w *writer) writeStringField(fieldNum int, s string) {
	if s == "" {
		return
	}
	w.writeBytesField(fieldNum, []byte(s))
}

// writeFloat32Field writes a fixed 32-bit float field.
func (w *writer) writeFloat32Field(fieldNum int, v float32) {
	w.writeTag(fieldNum, wire32Bit)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// writeMessageField writes an embedded message via a sub-writer.
func (w *writer) writeMessageField(fieldNum int, fn func(sub *writer)) {
	sub := &writer{}
	fn(sub)
	w.writeBytesField(fieldNum, sub.buf)
}

// writePackedFloats writes a packed repeated float field.
func (w *writer) writePackedFloats(fieldNum int, values []float32) {
	data := make([]byte, 0, len(values)*4)
	for _, v := range values {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	w.writeBytesField(fieldNum, data)
}

// writePackedVarints writes a packed repeated varint field.
func (w *writer) writePackedVarints(fieldNum int, values []int64) {
	sub := &writer{}
	for _, v := range values {
		sub.writeVarint(v)
	}
	w.writeBytesField(fieldNum, sub.buf)
}
