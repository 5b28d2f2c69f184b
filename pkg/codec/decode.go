package codec

import (
	"encoding/binary"
	"math"
	"time"
)

// Decode parses the wire format produced by Encode back into a property
// bag. It fails with a *DecodeError on malformed input or an unrecognized
// type tag rather than silently dropping fields.
func Decode(data []byte) (PropertyBag, error) {
	d := &decoder{data: data}
	v, err := d.readValue()
	if err != nil {
		return nil, err
	}
	if v.Kind != KindMap {
		return nil, newDecodeError(0, "top-level value is not a map (kind %d)", v.Kind)
	}
	if d.pos != len(d.data) {
		return nil, newDecodeError(d.pos, "trailing bytes after top-level value")
	}
	return v.Map, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readValue() (Value, error) {
	if d.pos >= len(d.data) {
		return Value{}, newDecodeError(d.pos, "unexpected end of input reading type tag")
	}
	tag := Kind(d.data[d.pos])
	start := d.pos
	d.pos++

	switch tag {
	case KindNull:
		return Null(), nil
	case KindBool:
		b, err := d.readByte()
		if err != nil {
			return Value{}, err
		}
		return Bool(b != 0), nil
	case KindInt64:
		u, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(u)), nil
	case KindUint64:
		u, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		return Uint64(u), nil
	case KindFloat64:
		u, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		return Float64(math.Float64frombits(u)), nil
	case KindString:
		b, err := d.readBytes()
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil
	case KindBinary:
		b, err := d.readBytes()
		if err != nil {
			return Value{}, err
		}
		return Binary(b), nil
	case KindTimestamp:
		secs, err := d.readUint64()
		if err != nil {
			return Value{}, err
		}
		if d.pos+4 > len(d.data) {
			return Value{}, newDecodeError(d.pos, "unexpected end of input reading timestamp nanos")
		}
		nanos := binary.BigEndian.Uint32(d.data[d.pos : d.pos+4])
		d.pos += 4
		return Timestamp(time.Unix(int64(secs), int64(nanos)).UTC()), nil
	case KindList, KindSet, KindOrderedSet:
		n, err := d.readUvarint()
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, 0, n)
		for i := uint64(0); i < n; i++ {
			el, err := d.readValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, el)
		}
		return Value{Kind: tag, List: elems}, nil
	case KindMap:
		n, err := d.readUvarint()
		if err != nil {
			return Value{}, err
		}
		bag := make(PropertyBag, n)
		for i := uint64(0); i < n; i++ {
			key, err := d.readBytes()
			if err != nil {
				return Value{}, err
			}
			val, err := d.readValue()
			if err != nil {
				return Value{}, err
			}
			bag[string(key)] = val
		}
		return Map(bag), nil
	case KindObjectRef:
		typeTag, err := d.readBytes()
		if err != nil {
			return Value{}, err
		}
		uuid, err := d.readBytes()
		if err != nil {
			return Value{}, err
		}
		nested, err := d.readValue()
		if err != nil {
			return Value{}, err
		}
		if nested.Kind != KindMap {
			return Value{}, newDecodeError(d.pos, "object reference properties are not a map")
		}
		return Object(&ObjectRef{
			TypeTag:    string(typeTag),
			UUID:       string(uuid),
			Properties: nested.Map,
		}), nil
	default:
		return Value{}, newDecodeError(start, "unknown type tag %d", tag)
	}
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, newDecodeError(d.pos, "unexpected end of input")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readUint64() (uint64, error) {
	if d.pos+8 > len(d.data) {
		return 0, newDecodeError(d.pos, "unexpected end of input reading fixed-width value")
	}
	v := binary.BigEndian.Uint64(d.data[d.pos : d.pos+8])
	d.pos += 8
	return v, nil
}

func (d *decoder) readUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		return 0, newDecodeError(d.pos, "malformed uvarint")
	}
	d.pos += n
	return v, nil
}

func (d *decoder) readBytes() ([]byte, error) {
	n, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if uint64(d.pos)+n > uint64(len(d.data)) {
		return nil, newDecodeError(d.pos, "length-prefixed value exceeds input")
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}
