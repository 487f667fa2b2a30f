package redisstack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

var (
	// ErrMultiExecuted is returned when a Multi is executed twice.
	ErrMultiExecuted = errors.New("redisstack: multi already executed")

	// ErrWatchAborted is returned when EXEC replies null: a watched key changed.
	ErrWatchAborted = errors.New("redisstack: transaction aborted, watched key changed")
)

// TransactionError reports the failure of a batch. Index is the position of
// the failing command in the queue, -1 when the batch failed as a whole
// (transport error, MULTI/EXEC error, WATCH abort).
type TransactionError struct {
	Index int
	Err   error
}

func (e *TransactionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("redisstack: transaction failed: %v", e.Err)
	}
	return fmt.Sprintf("redisstack: transaction failed at command %d: %v", e.Index, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

type multiState int

const (
	multiBuilding multiState = iota
	multiExecuting
	multiCompleted
	multiAborted
)

// queuedCommand is one slot of a Multi. Raw slots (AddCommand and the legacy
// calling convention) get the store-native reply instead of the command's
// transformed one.
type queuedCommand struct {
	cmd      command.Completed
	raw      bool
	callback Callback
}

// Multi queues commands and sends them in one batch, either as a MULTI/EXEC
// transaction (Exec) or as a plain pipeline (ExecAsPipeline).
//
//	results, err := client.Multi().
//		Ping().
//		Set("key", "value", nil).
//		Get("key").
//		Exec(ctx)
//	// results: ["PONG", "OK", "value"]
//
// A Multi is executed once.
type Multi struct {
	client *Client

	mu    sync.Mutex
	queue []queuedCommand
	state multiState
}

// Multi starts a new transaction.
func (c *Client) Multi() *Multi {
	return &Multi{client: c}
}

// push appends q unless the batch was already sent, and reports whether it
// was queued.
func (m *Multi) push(q queuedCommand) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != multiBuilding {
		return false
	}
	m.queue = append(m.queue, q)
	return true
}

// Queue adds a command. Its reply is transformed by the command's own
// transformer. Commands queued once Exec or ExecAsPipeline has been called
// are dropped: the batch is already on its way.
func (m *Multi) Queue(cmd command.Completed) *Multi {
	m.push(queuedCommand{cmd: cmd})
	return m
}

// AddCommand adds a command with no typed constructor. Its reply is returned
// untransformed, as store-native values (see resp.Value.Native).
func (m *Multi) AddCommand(tokens ...string) *Multi {
	m.push(queuedCommand{cmd: command.Raw(tokens...), raw: true})
	return m
}

func (m *Multi) Ping() *Multi {
	return m.Queue(Ping(""))
}

func (m *Multi) Set(key, value string, opts *SetOptions) *Multi {
	return m.Queue(Set(key, value, opts))
}

func (m *Multi) Get(key string) *Multi {
	return m.Queue(Get(key))
}

// Len returns the number of queued commands.
func (m *Multi) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Exec sends MULTI, the queued commands and EXEC contiguously on one
// connection and returns one result per queued command, in queue order.
// A null reply becomes a nil result.
//
// The call is all-or-nothing: if any command fails, EXEC fails, the
// transaction is aborted by WATCH, or the connection breaks, the error is a
// *TransactionError and no results are returned.
func (m *Multi) Exec(ctx context.Context) ([]any, error) {
	return m.exec(ctx, true)
}

// ExecAsPipeline sends the queued commands in one batch without MULTI/EXEC.
// The commands are not atomic, but the result contract is the same as Exec.
func (m *Multi) ExecAsPipeline(ctx context.Context) ([]any, error) {
	return m.exec(ctx, false)
}

func (m *Multi) exec(ctx context.Context, transaction bool) ([]any, error) {
	_, results, err := m.execQueue(ctx, transaction)
	return results, err
}

// execQueue runs the batch and also returns the queue it sent, which
// results are positioned against.
func (m *Multi) execQueue(ctx context.Context, transaction bool) ([]queuedCommand, []any, error) {
	m.mu.Lock()
	if m.state != multiBuilding {
		m.mu.Unlock()
		return nil, nil, ErrMultiExecuted
	}
	m.state = multiExecuting
	queue := m.queue
	m.mu.Unlock()

	results, err := m.run(ctx, queue, transaction)

	m.mu.Lock()
	if err != nil {
		m.state = multiAborted
	} else {
		m.state = multiCompleted
	}
	m.mu.Unlock()

	return queue, results, err
}

func (m *Multi) run(ctx context.Context, queue []queuedCommand, transaction bool) ([]any, error) {
	if len(queue) == 0 {
		return []any{}, nil
	}

	cmds := make([][]string, 0, len(queue)+2)
	if transaction {
		cmds = append(cmds, []string{"MULTI"})
	}

	// the batch goes to the server of the first keyed command; replicas only
	// when every command is read-only
	var routeKey string
	keyed := false
	readOnly := true
	for _, q := range queue {
		if key, ok := q.cmd.Key(); ok && !keyed {
			routeKey, keyed = key, true
		}
		readOnly = readOnly && q.cmd.IsReadOnly()
		cmds = append(cmds, queuedArgs(q.cmd))
	}

	if transaction {
		cmds = append(cmds, []string{"EXEC"})
	}

	replies, err := m.client.executeBatch(ctx, routeKey, keyed, readOnly, cmds, transaction)
	if err != nil {
		return nil, &TransactionError{Index: -1, Err: err}
	}

	if transaction {
		if replies, err = transactionReplies(replies, len(queue)); err != nil {
			return nil, err
		}
	}

	return decodeQueued(queue, replies)
}

// queuedArgs returns the EVAL form of script commands: a NOSCRIPT error
// inside a transaction cannot be retried.
func queuedArgs(cmd command.Completed) []string {
	if fallback, ok := cmd.(command.EvalFallback); ok && fallback.EvalArgs() != nil {
		return fallback.EvalArgs()
	}
	return cmd.Args()
}

// transactionReplies checks the MULTI and QUEUED replies and returns the
// EXEC reply elements.
func transactionReplies(replies []resp.Value, n int) ([]resp.Value, error) {
	if len(replies) != n+2 {
		return nil, &TransactionError{Index: -1, Err: fmt.Errorf("%w: %d replies for %d commands", command.ErrUnexpectedReply, len(replies), n+2)}
	}

	if err := replies[0].Err(); err != nil {
		return nil, &TransactionError{Index: -1, Err: err}
	}

	// commands rejected while queuing make EXEC fail with EXECABORT; the
	// first rejection is the useful error
	for i, reply := range replies[1 : n+1] {
		if err := reply.Err(); err != nil {
			return nil, &TransactionError{Index: i, Err: err}
		}
	}

	exec := replies[n+1]
	if err := exec.Err(); err != nil {
		return nil, &TransactionError{Index: -1, Err: err}
	}
	if exec.IsNull() {
		return nil, &TransactionError{Index: -1, Err: ErrWatchAborted}
	}
	if exec.Kind != resp.KindArray || len(exec.Array) != n {
		return nil, &TransactionError{Index: -1, Err: command.NewReplyError(fmt.Sprintf("array of %d replies", n), exec)}
	}
	return exec.Array, nil
}

func decodeQueued(queue []queuedCommand, replies []resp.Value) ([]any, error) {
	results := make([]any, len(queue))
	for i, q := range queue {
		reply := replies[i]
		if err := reply.Err(); err != nil {
			return nil, &TransactionError{Index: i, Err: err}
		}

		if q.raw {
			results[i] = reply.Native()
			continue
		}

		result, err := q.cmd.DecodeAny(reply)
		if errors.Is(err, command.ErrNil) {
			continue
		}
		if err != nil {
			return nil, &TransactionError{Index: i, Err: err}
		}
		results[i] = result
	}
	return results, nil
}
