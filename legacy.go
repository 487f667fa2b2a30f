package redisstack

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

// Callback receives the outcome of a legacy call. reply holds store-native
// values (see resp.Value.Native): no reply transformation is applied.
type Callback func(err error, reply any)

// Legacy is the callback calling convention. Every call runs on its own
// goroutine and reports to its callback; commands go through the same
// Client.Execute as the typed API.
//
//	legacy := client.Legacy()
//	legacy.Call("SET", "key", "value", func(err error, reply any) { ... })
//	legacy.Wait()
type Legacy struct {
	client *Client
	ctx    context.Context
	wg     sync.WaitGroup
}

// Legacy returns the callback surface of the client.
func (c *Client) Legacy() *Legacy {
	return c.legacy
}

func newLegacy(client *Client) *Legacy {
	return &Legacy{client: client, ctx: context.Background()}
}

// V4 returns the typed client.
func (l *Legacy) V4() *Client {
	return l.client
}

// Wait blocks until every callback started so far has returned.
func (l *Legacy) Wait() {
	l.wg.Wait()
}

// SendCommand sends raw tokens. cb may be nil.
func (l *Legacy) SendCommand(args []string, cb Callback) {
	l.Send(command.Raw(args...), cb)
}

// Send runs any command, module commands included, and reports the
// untransformed reply. cb may be nil.
func (l *Legacy) Send(cmd command.Completed, cb Callback) {
	l.wg.Go(func() {
		reply, err := l.client.Execute(l.ctx, cmd)
		deliver(cb, reply, err)
	})
}

// Call sends the command name with args. Arguments may be strings, byte
// slices, integers, floats or string slices, flattened in order. A trailing
// Callback (or func(error, any)) receives the reply.
func (l *Legacy) Call(name string, args ...any) {
	tokens, cb, err := legacyArgs(name, args)
	if err != nil {
		l.fail(cb, err)
		return
	}
	l.SendCommand(tokens, cb)
}

func (l *Legacy) fail(cb Callback, err error) {
	l.wg.Go(func() {
		deliver(cb, resp.Value{}, err)
	})
}

func deliver(cb Callback, reply resp.Value, err error) {
	if cb == nil {
		return
	}
	if err == nil {
		err = reply.Err()
	}
	if err != nil {
		cb(err, nil)
		return
	}
	cb(nil, reply.Native())
}

// legacyArgs flattens legacy arguments into tokens and extracts the
// trailing callback.
func legacyArgs(name string, args []any) ([]string, Callback, error) {
	var cb Callback
	if n := len(args); n > 0 {
		switch fn := args[n-1].(type) {
		case Callback:
			cb, args = fn, args[:n-1]
		case func(error, any):
			cb, args = fn, args[:n-1]
		case nil:
			args = args[:n-1]
		}
	}

	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, name)
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			tokens = append(tokens, v)
		case []string:
			tokens = append(tokens, v...)
		case []byte:
			tokens = append(tokens, string(v))
		case int:
			tokens = append(tokens, strconv.Itoa(v))
		case int64:
			tokens = append(tokens, command.FormatInt(v))
		case uint64:
			tokens = append(tokens, strconv.FormatUint(v, 10))
		case float64:
			tokens = append(tokens, command.FormatFloat(v))
		default:
			return nil, cb, fmt.Errorf("redisstack: unsupported argument type %T", arg)
		}
	}
	return tokens, cb, nil
}

// Multi starts a transaction in the callback convention.
func (l *Legacy) Multi() *LegacyMulti {
	return &LegacyMulti{legacy: l, multi: l.client.Multi()}
}

// LegacyMulti queues callback-style commands. Its typed view (V4) shares the
// same queue, so both conventions can be mixed: a single Exec fans each
// result out in the convention of the call that queued it.
type LegacyMulti struct {
	legacy *Legacy
	multi  *Multi
	err    error
}

// V4 returns the typed view over the same queue.
func (m *LegacyMulti) V4() *Multi {
	return m.multi
}

// Call queues the command name with args, as Legacy.Call. A trailing
// callback receives this command's reply after Exec.
func (m *LegacyMulti) Call(name string, args ...any) *LegacyMulti {
	tokens, cb, err := legacyArgs(name, args)
	if err != nil {
		m.multi.mu.Lock()
		if m.err == nil {
			m.err = err
		}
		m.multi.mu.Unlock()
		return m
	}
	return m.Send(command.Raw(tokens...), cb)
}

// Send queues any command with an untransformed reply. Once Exec has been
// called, cb receives ErrMultiExecuted instead.
func (m *LegacyMulti) Send(cmd command.Completed, cb Callback) *LegacyMulti {
	if !m.multi.push(queuedCommand{cmd: cmd, raw: true, callback: cb}) {
		m.legacy.fail(cb, ErrMultiExecuted)
	}
	return m
}

// Exec runs the transaction. cb receives the results in queue order; the
// per-command callbacks are called first, in queue order.
func (m *LegacyMulti) Exec(cb Callback) {
	m.legacy.wg.Go(func() {
		m.multi.mu.Lock()
		argErr := m.err
		m.multi.mu.Unlock()

		if argErr != nil {
			if cb != nil {
				cb(argErr, nil)
			}
			return
		}

		queue, results, err := m.multi.execQueue(m.legacy.ctx, true)

		for i, q := range queue {
			if q.callback == nil {
				continue
			}
			if err != nil {
				q.callback(err, nil)
			} else {
				q.callback(nil, results[i])
			}
		}

		if cb != nil {
			if err != nil {
				cb(err, nil)
			} else {
				cb(nil, results)
			}
		}
	})
}
