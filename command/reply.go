package command

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/pior/redisstack/resp"
)

var (
	// ErrNil is returned when the server replies null to a command whose
	// typed result cannot represent it (GET on a missing key, TS.GET on an
	// empty series...).
	ErrNil = errors.New("redisstack: nil reply")

	// ErrUnexpectedReply matches every *ReplyError.
	ErrUnexpectedReply = errors.New("redisstack: unexpected reply")
)

// ReplyError reports a reply whose shape does not match the command's
// documented reply type. It signals a client/server protocol skew and is
// never retried.
type ReplyError struct {
	Command  string
	Expected string
	Got      resp.Value
}

// NewReplyError returns a *ReplyError for a reply that is not what expected describes.
func NewReplyError(expected string, got resp.Value) *ReplyError {
	return &ReplyError{Expected: expected, Got: got}
}

func (e *ReplyError) Error() string {
	got := truncate(e.Got.String(), 128)
	if e.Command == "" {
		return fmt.Sprintf("redisstack: unexpected reply: expected %s, got %s %s", e.Expected, e.Got.Kind, got)
	}
	return fmt.Sprintf("redisstack: unexpected reply to %s: expected %s, got %s %s", e.Command, e.Expected, e.Got.Kind, got)
}

func (e *ReplyError) Is(target error) bool {
	return target == ErrUnexpectedReply
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Identity returns the raw reply.
func Identity(v resp.Value) (resp.Value, error) {
	return v, nil
}

// Any returns the reply as native Go values (see resp.Value.Native).
func Any(v resp.Value) (any, error) {
	return v.Native(), nil
}

// String decodes a simple or bulk string.
func String(v resp.Value) (string, error) {
	if v.IsNull() {
		return "", ErrNil
	}
	switch v.Kind {
	case resp.KindSimpleString, resp.KindBulkString:
		return v.Str, nil
	}
	return "", NewReplyError("string", v)
}

// OK decodes a status reply that must be "OK".
func OK(v resp.Value) (string, error) {
	s, err := String(v)
	if err != nil {
		return "", err
	}
	if s != "OK" {
		return "", NewReplyError(`"OK"`, v)
	}
	return s, nil
}

// Int decodes an integer.
func Int(v resp.Value) (int64, error) {
	if v.IsNull() {
		return 0, ErrNil
	}
	if v.Kind != resp.KindInteger {
		return 0, NewReplyError("integer", v)
	}
	return v.Int, nil
}

// Bool decodes an integer reply of 0 or 1.
func Bool(v resp.Value) (bool, error) {
	n, err := Int(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// Float decodes a stringified number ("1.1", "inf") or an integer.
func Float(v resp.Value) (float64, error) {
	if v.IsNull() {
		return 0, ErrNil
	}
	switch v.Kind {
	case resp.KindInteger:
		return float64(v.Int), nil
	case resp.KindSimpleString, resp.KindBulkString:
		f, err := ParseFloat(v.Str)
		if err != nil {
			return 0, NewReplyError("float", v)
		}
		return f, nil
	}
	return 0, NewReplyError("float", v)
}

// ParseFloat parses a number as the server formats it.
func ParseFloat(s string) (float64, error) {
	// strconv accepts "inf", "+inf", "-inf" and "nan" in any case
	return strconv.ParseFloat(s, 64)
}

// Array checks that v is a non-null array and returns its elements.
func Array(v resp.Value) ([]resp.Value, error) {
	if v.IsNull() {
		return nil, ErrNil
	}
	if v.Kind != resp.KindArray {
		return nil, NewReplyError("array", v)
	}
	return v.Array, nil
}

// Strings decodes an array of strings.
func Strings(v resp.Value) ([]string, error) {
	elems, err := Array(v)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(elems))
	for i, elem := range elems {
		if out[i], err = String(elem); err != nil {
			if errors.Is(err, ErrNil) {
				return nil, NewReplyError("array of strings", v)
			}
			return nil, err
		}
	}
	return out, nil
}

// Int64s decodes an array of integers.
func Int64s(v resp.Value) ([]int64, error) {
	elems, err := Array(v)
	if err != nil {
		return nil, err
	}

	out := make([]int64, len(elems))
	for i, elem := range elems {
		if out[i], err = Int(elem); err != nil {
			if errors.Is(err, ErrNil) {
				return nil, NewReplyError("array of integers", v)
			}
			return nil, err
		}
	}
	return out, nil
}

// StringMap decodes a flat array of name/value pairs.
func StringMap(v resp.Value) (map[string]string, error) {
	elems, err := Array(v)
	if err != nil {
		return nil, err
	}
	if len(elems)%2 != 0 {
		return nil, NewReplyError("even number of elements", v)
	}

	out := make(map[string]string, len(elems)/2)
	for i := 0; i < len(elems); i += 2 {
		name, err := String(elems[i])
		if err != nil {
			return nil, NewReplyError("name/value pairs", v)
		}
		value, err := String(elems[i+1])
		if err != nil && !errors.Is(err, ErrNil) {
			return nil, NewReplyError("name/value pairs", v)
		}
		out[name] = value
	}
	return out, nil
}

// Nullable wraps a transformer so that a null reply decodes to nil instead of ErrNil.
func Nullable[T any](fn ReplyFunc[T]) ReplyFunc[*T] {
	return func(v resp.Value) (*T, error) {
		if v.IsNull() {
			return nil, nil
		}
		out, err := fn(v)
		if err != nil {
			return nil, err
		}
		return &out, nil
	}
}
