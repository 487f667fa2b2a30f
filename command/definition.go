package command

import (
	"errors"

	"github.com/pior/redisstack/resp"
)

// ReplyFunc transforms a raw reply into a typed value.
// It never performs I/O.
type ReplyFunc[T any] func(resp.Value) (T, error)

// Definition describes one wire command. It is defined once, at package
// load, and shared by every invocation.
type Definition[T any] struct {
	// ReadOnly marks commands that can be served by a replica.
	// It is a routing hint only and has no effect on a single node.
	ReadOnly bool

	// FirstKeyIndex is the position of the first key in the token sequence
	// (the command name is at 0). Zero means the command has no key.
	FirstKeyIndex int

	// Reply transforms the raw reply. Required.
	Reply ReplyFunc[T]
}

// Build returns an invocation of the command with the given token sequence.
func (d *Definition[T]) Build(args Args) Cmd[T] {
	return Cmd[T]{
		args:     args,
		readOnly: d.ReadOnly,
		firstKey: d.FirstKeyIndex,
		reply:    d.Reply,
	}
}

// Completed is the untyped view of a command invocation, used by pipelines,
// transactions and the legacy calling convention.
type Completed interface {
	// Args returns the token sequence. It must not be modified.
	Args() []string

	// IsReadOnly reports whether a replica may serve the command.
	IsReadOnly() bool

	// Key returns the first key of the command, if any.
	Key() (string, bool)

	// DecodeAny transforms the raw reply with the command's reply transformer.
	DecodeAny(resp.Value) (any, error)
}

// EvalFallback is implemented by commands that can be re-sent in a
// self-contained form when the server misses cached state (EVALSHA → EVAL).
type EvalFallback interface {
	EvalArgs() []string
}

// Cmd is an immutable, typed command invocation: a token sequence and the
// transformer for its reply.
type Cmd[T any] struct {
	args     Args
	readOnly bool
	firstKey int
	reply    ReplyFunc[T]
	evalArgs Args
}

var _ Completed = Cmd[string]{}

func (c Cmd[T]) Args() []string { return c.args }

func (c Cmd[T]) IsReadOnly() bool { return c.readOnly }

// Name returns the command name (first token).
func (c Cmd[T]) Name() string {
	if len(c.args) == 0 {
		return ""
	}
	return c.args[0]
}

func (c Cmd[T]) Key() (string, bool) {
	if c.firstKey <= 0 || c.firstKey >= len(c.args) {
		return "", false
	}
	return c.args[c.firstKey], true
}

// EvalArgs returns the EVAL form of a script command, nil for other commands.
func (c Cmd[T]) EvalArgs() []string { return c.evalArgs }

// Decode transforms a raw reply. Error replies are returned as *resp.ServerError.
func (c Cmd[T]) Decode(v resp.Value) (T, error) {
	var zero T

	if err := v.Err(); err != nil {
		return zero, err
	}

	out, err := c.reply(v)
	if err != nil {
		var re *ReplyError
		if errors.As(err, &re) && re.Command == "" {
			re.Command = c.Name()
		}
		return zero, err
	}
	return out, nil
}

func (c Cmd[T]) DecodeAny(v resp.Value) (any, error) {
	return c.Decode(v)
}

var rawDef = Definition[resp.Value]{Reply: Identity}

// Raw builds a command from raw tokens. The reply is returned untransformed.
func Raw(tokens ...string) Cmd[resp.Value] {
	return rawDef.Build(NewArgs(tokens...))
}
