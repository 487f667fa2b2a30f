package command

import (
	"context"

	"github.com/pior/redisstack/resp"
)

// Executor sends one command and returns its raw reply.
// It is the transport boundary: connection management, routing and
// retries of transport failures belong to the implementation.
type Executor interface {
	Execute(ctx context.Context, cmd Completed) (resp.Value, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd Completed) (resp.Value, error)

func (f ExecutorFunc) Execute(ctx context.Context, cmd Completed) (resp.Value, error) {
	return f(ctx, cmd)
}

// Do executes cmd and transforms its reply.
func Do[T any](ctx context.Context, exec Executor, cmd Cmd[T]) (T, error) {
	v, err := exec.Execute(ctx, cmd)
	if err != nil {
		var zero T
		return zero, err
	}
	return cmd.Decode(v)
}
