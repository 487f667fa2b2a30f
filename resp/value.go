package resp

import (
	"strconv"
	"strings"
)

// Value represents one RESP reply.
// This is a low-level container without command-specific logic.
type Value struct {
	// Kind is the RESP type of the reply
	Kind Kind

	// Str is set for simple strings, errors and bulk strings
	Str string

	// Int is set for integers
	Int int64

	// Array holds the elements of an array reply
	Array []Value

	// Null is set for null bulk strings and null arrays
	Null bool
}

// SimpleString returns a simple string value (+OK).
func SimpleString(s string) Value { return Value{Kind: KindSimpleString, Str: s} }

// BulkString returns a bulk string value ($3 foo).
func BulkString(s string) Value { return Value{Kind: KindBulkString, Str: s} }

// Integer returns an integer value (:1).
func Integer(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// ArrayOf returns an array value holding the given elements.
func ArrayOf(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Kind: KindArray, Array: values}
}

// NullBulk returns a null bulk string ($-1).
func NullBulk() Value { return Value{Kind: KindBulkString, Null: true} }

// NullArray returns a null array (*-1).
func NullArray() Value { return Value{Kind: KindArray, Null: true} }

// ErrorReply returns an error value (-ERR message).
func ErrorReply(msg string) Value { return Value{Kind: KindError, Str: msg} }

// IsNull returns true for null bulk strings and null arrays.
func (v Value) IsNull() bool {
	return v.Null
}

// IsError returns true if the value is an error reply.
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// Err returns a *ServerError for error replies and nil otherwise.
func (v Value) Err() error {
	if v.Kind != KindError {
		return nil
	}
	return NewServerError(v.Str)
}

// Native converts the value to plain Go values:
// string, int64, nil, []any or *ServerError.
func (v Value) Native() any {
	if v.Null {
		return nil
	}

	switch v.Kind {
	case KindSimpleString, KindBulkString:
		return v.Str
	case KindInteger:
		return v.Int
	case KindError:
		return NewServerError(v.Str)
	case KindArray:
		out := make([]any, len(v.Array))
		for i, elem := range v.Array {
			out[i] = elem.Native()
		}
		return out
	default:
		return nil
	}
}

// String renders the value in a compact, human-readable form for error messages and debugging.
func (v Value) String() string {
	var sb strings.Builder
	v.appendString(&sb)
	return sb.String()
}

func (v Value) appendString(sb *strings.Builder) {
	if v.Null {
		sb.WriteString("(nil)")
		return
	}

	switch v.Kind {
	case KindSimpleString:
		sb.WriteString(v.Str)
	case KindBulkString:
		sb.WriteString(strconv.Quote(v.Str))
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindError:
		sb.WriteString("(error) ")
		sb.WriteString(v.Str)
	case KindArray:
		sb.WriteByte('[')
		for i, elem := range v.Array {
			if i > 0 {
				sb.WriteString(", ")
			}
			elem.appendString(sb)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("(invalid)")
	}
}
