package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		bag  PropertyBag
	}{
		{
			name: "scalars",
			bag: PropertyBag{
				"title":  String("A"),
				"count":  Int64(-7),
				"size":   Uint64(42),
				"ratio":  Float64(3.25),
				"active": Bool(true),
				"blob":   Binary([]byte{0x01, 0x02, 0xff}),
				"empty":  Null(),
			},
		},
		{
			name: "timestamp",
			bag: PropertyBag{
				"created": Timestamp(time.Date(2026, 7, 30, 12, 0, 0, 123456000, time.UTC)),
			},
		},
		{
			name: "ordered list preserves order",
			bag: PropertyBag{
				"tracks": List([]Value{String("t1"), String("t2"), String("t3")}),
			},
		},
		{
			name: "ordered set preserves order",
			bag: PropertyBag{
				"tags": OrderedSet([]Value{String("x"), String("y")}),
			},
		},
		{
			name: "nested map",
			bag: PropertyBag{
				"meta": Map(PropertyBag{"nested": String("v")}),
			},
		},
		{
			name: "object reference",
			bag: PropertyBag{
				"owner": Object(&ObjectRef{
					TypeTag:    "Track",
					UUID:       "11111111-1111-1111-1111-111111111111",
					Properties: PropertyBag{"name": String("t1")},
				}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.bag)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)

			assert.True(t, Map(tt.bag).Equal(Map(decoded)), "round trip not equal")
		})
	}
}

func TestSetOrderNotPreserved(t *testing.T) {
	bag := PropertyBag{
		"labels": Set([]Value{String("b"), String("a")}),
	}
	data, err := Encode(bag)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.True(t, Map(bag).Equal(Map(decoded)))
}

func TestDecodeUnknownTagFails(t *testing.T) {
	data, err := Encode(PropertyBag{"x": Int64(1)})
	require.NoError(t, err)

	// Corrupt the type tag of the top-level map's single value.
	corrupted := append([]byte(nil), data...)
	for i, b := range corrupted {
		if b == byte(KindInt64) {
			corrupted[i] = 0xEE
			break
		}
	}

	_, err = Decode(corrupted)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Greater(t, decErr.Offset, 0)
}

func TestDecodeTruncatedInputFails(t *testing.T) {
	data, err := Encode(PropertyBag{"x": String("hello")})
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-2])
	require.Error(t, err)
}

func TestDecodeTopLevelMustBeMap(t *testing.T) {
	buf := &bytes.Buffer{}
	e := &encoder{buf: buf}
	e.writeValue(Int64(5))

	_, err := Decode(buf.Bytes())
	require.Error(t, err)
}
