package codec

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode serializes a property bag to the wire format described in doc.go.
func Encode(bag PropertyBag) ([]byte, error) {
	var buf bytes.Buffer
	e := &encoder{buf: &buf}
	e.writeValue(Map(bag))
	return buf.Bytes(), nil
}

type encoder struct {
	buf *bytes.Buffer
}

func (e *encoder) writeValue(v Value) {
	e.buf.WriteByte(byte(v.Kind))
	switch v.Kind {
	case KindNull:
	case KindBool:
		if v.Bool {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
	case KindInt64:
		e.writeUint64(uint64(v.Int64))
	case KindUint64:
		e.writeUint64(v.Uint64)
	case KindFloat64:
		e.writeUint64(math.Float64bits(v.Float64))
	case KindString:
		e.writeBytes([]byte(v.String))
	case KindBinary:
		e.writeBytes(v.Binary)
	case KindTimestamp:
		e.writeUint64(uint64(v.Timestamp.Unix()))
		var nanos [4]byte
		binary.BigEndian.PutUint32(nanos[:], uint32(v.Timestamp.Nanosecond()))
		e.buf.Write(nanos[:])
	case KindList, KindSet, KindOrderedSet:
		e.writeUvarint(uint64(len(v.List)))
		for _, el := range v.List {
			e.writeValue(el)
		}
	case KindMap:
		e.writeUvarint(uint64(len(v.Map)))
		for k, val := range v.Map {
			e.writeBytes([]byte(k))
			e.writeValue(val)
		}
	case KindObjectRef:
		e.writeBytes([]byte(v.Ref.TypeTag))
		e.writeBytes([]byte(v.Ref.UUID))
		e.writeValue(Map(v.Ref.Properties))
	}
}

func (e *encoder) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) writeUvarint(v uint64) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], v)
	e.buf.Write(b[:n])
}

func (e *encoder) writeBytes(b []byte) {
	e.writeUvarint(uint64(len(b)))
	e.buf.Write(b)
}
