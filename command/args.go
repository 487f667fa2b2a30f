package command

import (
	"math"
	"slices"
	"strconv"
)

// Args is an ordered command token sequence: the literal wire representation
// of one command invocation.
type Args []string

// NewArgs starts a token sequence, typically with the command name.
func NewArgs(tokens ...string) Args {
	args := make(Args, len(tokens), len(tokens)+8)
	copy(args, tokens)
	return args
}

// Append appends raw tokens.
func (a Args) Append(tokens ...string) Args {
	return append(a, tokens...)
}

// AppendInt appends an integer token.
func (a Args) AppendInt(n int64) Args {
	return append(a, FormatInt(n))
}

// AppendFloat appends a float token.
func (a Args) AppendFloat(f float64) Args {
	return append(a, FormatFloat(f))
}

// PushVariadic appends values in order. A single value and a sequence are
// handled the same way: one token per value.
func PushVariadic(args Args, values ...string) Args {
	return append(args, values...)
}

// PushVariadicWithLength appends the number of values followed by the values.
func PushVariadicWithLength(args Args, values ...string) Args {
	args = append(args, strconv.Itoa(len(values)))
	return append(args, values...)
}

// PushPairs appends name/value pairs sorted by name, so the token order does
// not depend on map iteration.
func PushPairs(args Args, pairs map[string]string) Args {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		args = append(args, k, pairs[k])
	}
	return args
}

// PushFlag appends name when set is true.
func PushFlag(args Args, name string, set bool) Args {
	if !set {
		return args
	}
	return append(args, name)
}

// PushIf appends tokens when cond is true.
func PushIf(args Args, cond bool, tokens ...string) Args {
	if !cond {
		return args
	}
	return append(args, tokens...)
}

// PushStringOption appends name and value when value is not empty.
func PushStringOption(args Args, name, value string) Args {
	if value == "" {
		return args
	}
	return append(args, name, value)
}

// PushIntOption appends name and value when value is not zero.
func PushIntOption(args Args, name string, value int64) Args {
	if value == 0 {
		return args
	}
	return append(args, name, FormatInt(value))
}

// PushIntPtrOption appends name and *value when value is not nil. Unlike
// PushIntOption, an explicit 0 is sent.
func PushIntPtrOption(args Args, name string, value *int64) Args {
	if value == nil {
		return args
	}
	return append(args, name, FormatInt(*value))
}

// FormatInt formats an integer token.
func FormatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// FormatFloat formats a float token in the shortest form that parses back
// to the same float64. Infinities use the server spelling.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
