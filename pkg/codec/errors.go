package codec

import "fmt"

// DecodeError reports a malformed or unrecognized byte in the input
// stream, together with the offset it was found at.
type DecodeError struct {
	Offset int
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode error at offset %d: %s", e.Offset, e.Msg)
}

func newDecodeError(offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
