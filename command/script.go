package command

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Script is a server-side Lua script exposed as a command.
//
// Call builds an EVALSHA invocation; executors re-send it as EVAL when the
// server does not have the script cached (NOSCRIPT).
type Script[A any, T any] struct {
	NumberOfKeys int
	Body         string
	SHA1         string

	transformArgs func(A) []string
	def           Definition[T]
}

// DefineScript registers a script. transformArgs maps the call argument to
// the script's keys followed by its arguments; the first NumberOfKeys tokens
// are keys.
func DefineScript[A any, T any](numberOfKeys int, body string, transformArgs func(A) []string, reply ReplyFunc[T]) *Script[A, T] {
	sum := sha1.Sum([]byte(body))

	firstKey := 0
	if numberOfKeys > 0 {
		// EVALSHA <sha1> <numkeys> <key>...
		firstKey = 3
	}

	return &Script[A, T]{
		NumberOfKeys:  numberOfKeys,
		Body:          body,
		SHA1:          hex.EncodeToString(sum[:]),
		transformArgs: transformArgs,
		def: Definition[T]{
			FirstKeyIndex: firstKey,
			Reply:         reply,
		},
	}
}

// Call returns an EVALSHA invocation carrying its EVAL fallback.
func (s *Script[A, T]) Call(a A) Cmd[T] {
	params := s.transformArgs(a)

	cmd := s.def.Build(s.args("EVALSHA", s.SHA1, params))
	cmd.evalArgs = s.args("EVAL", s.Body, params)
	return cmd
}

// Eval returns a self-contained EVAL invocation.
func (s *Script[A, T]) Eval(a A) Cmd[T] {
	return s.def.Build(s.args("EVAL", s.Body, s.transformArgs(a)))
}

// Load returns the SCRIPT LOAD command for the script.
func (s *Script[A, T]) Load() Cmd[string] {
	return scriptLoadDef.Build(NewArgs("SCRIPT", "LOAD", s.Body))
}

func (s *Script[A, T]) args(name, script string, params []string) Args {
	args := make(Args, 0, 3+len(params))
	args = append(args, name, script, strconv.Itoa(s.NumberOfKeys))
	return append(args, params...)
}

var scriptLoadDef = Definition[string]{Reply: String}
