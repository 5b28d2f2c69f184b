/*
Package codec implements the self-describing value codec used to persist a
store's property-bag graph to disk.

Encode/Decode round-trip a PropertyBag (name -> Value) through a compact
binary stream. The stream is type-tagged so Decode never has to guess a
value's shape, and it is stable across encoders: two different encodings of
an equal bag decode back to equal bags even if on-disk byte layout differs
(map key order is not significant).

# Wire format

Every value starts with a one-byte type tag followed by a tag-specific
payload:

	tag   kind       payload
	0x00  Null       (none)
	0x01  Bool       1 byte (0 or 1)
	0x02  Int64      8 bytes, big-endian
	0x03  Uint64     8 bytes, big-endian
	0x04  Float64    8 bytes, big-endian (math.Float64bits)
	0x05  String     uvarint length, then UTF-8 bytes
	0x06  Binary     uvarint length, then raw bytes
	0x07  Timestamp  8 bytes big-endian (unix seconds) + 4 bytes big-endian (nanos)
	0x08  List       uvarint count, then that many tagged values
	0x09  Set        uvarint count, then that many tagged values
	0x0A  OrderedSet uvarint count, then that many tagged values
	0x0B  Map        uvarint count, then that many (string key, tagged value) pairs
	0x0C  ObjectRef  type-tag string, uuid string, then a tagged Map value (0x0B + Map payload)

A PropertyBag is encoded as a Map at the top level.

Unknown tags fail decoding with a DecodeError carrying the byte offset of
the unrecognized tag, rather than being silently skipped; forward
compatibility across format versions is an explicit non-goal for now.
*/
package codec
