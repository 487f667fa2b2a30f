// Package output prints replies the way redis-cli does, with optional colors.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/pior/redisstack/internal/codec"
	"github.com/pior/redisstack/resp"
)

// Options configures how a reply is printed.
type Options struct {
	Color bool

	// Codec decodes bulk strings before printing. Values it cannot decode are
	// printed as stored.
	Codec codec.Codec
}

var (
	colorString  = color.New(color.FgHiBlue)
	colorInteger = color.New(color.FgHiGreen)
	colorError   = color.New(color.FgRed, color.Bold)
	colorNull    = color.New(color.FgHiBlack)
	colorIndex   = color.New(color.FgHiBlack)
)

func digitWidth(n int) int {
	return len(strconv.Itoa(n))
}

// Print writes v followed by a newline.
func Print(w io.Writer, v resp.Value, opts Options) {
	printValue(w, v, "", opts)
}

func (o Options) print(w io.Writer, c *color.Color, text string) {
	if o.Color {
		c.Fprint(w, text)
		return
	}
	fmt.Fprint(w, text)
}

func printValue(w io.Writer, v resp.Value, padding string, opts Options) {
	switch {
	case v.IsNull():
		opts.print(w, colorNull, "(nil)")
		fmt.Fprintln(w)

	case v.Kind == resp.KindArray:
		printArray(w, v.Array, padding, opts)

	case v.Kind == resp.KindError:
		opts.print(w, colorError, "(error) "+v.Str)
		fmt.Fprintln(w)

	case v.Kind == resp.KindInteger:
		opts.print(w, colorInteger, "(integer) "+strconv.FormatInt(v.Int, 10))
		fmt.Fprintln(w)

	case v.Kind == resp.KindSimpleString:
		opts.print(w, colorString, v.Str)
		fmt.Fprintln(w)

	default:
		opts.print(w, colorString, strconv.Quote(opts.decode(v.Str)))
		fmt.Fprintln(w)
	}
}

// printArray right-aligns the indices and prints nested arrays inline, the
// first element on the parent's line.
func printArray(w io.Writer, values []resp.Value, padding string, opts Options) {
	if len(values) == 0 {
		opts.print(w, colorNull, "(empty array)")
		fmt.Fprintln(w)
		return
	}

	digits := digitWidth(len(values))
	childPadding := padding + strings.Repeat(" ", digits+2)

	for i, value := range values {
		if i > 0 {
			fmt.Fprint(w, padding)
		}
		opts.print(w, colorIndex, fmt.Sprintf("%*d) ", digits, i+1))
		printValue(w, value, childPadding, opts)
	}
}

func (o Options) decode(s string) string {
	if o.Codec == nil {
		return s
	}
	decoded, err := o.Codec.Decode([]byte(s))
	if err != nil {
		return s
	}
	return string(decoded)
}

// Raw writes v without type annotations: one line per scalar, arrays
// flattened. Null replies print an empty line.
func Raw(w io.Writer, v resp.Value, opts Options) {
	if v.Kind == resp.KindArray && !v.IsNull() {
		for _, element := range v.Array {
			Raw(w, element, opts)
		}
		return
	}

	switch {
	case v.IsNull():
		fmt.Fprintln(w)
	case v.Kind == resp.KindInteger:
		fmt.Fprintln(w, v.Int)
	case v.Kind == resp.KindBulkString:
		fmt.Fprintln(w, opts.decode(v.Str))
	default:
		fmt.Fprintln(w, v.Str)
	}
}
