package redisstack

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pior/redisstack/resp"
)

// ErrHandshake wraps errors of the connection setup commands (AUTH, SELECT, CLIENT SETNAME).
var ErrHandshake = errors.New("redisstack: handshake failed")

// Connection is one RESP connection. It is not safe for concurrent use: the
// pool hands it to a single caller at a time.
type Connection struct {
	net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	closeOnce sync.Once
	onClose   func()

	// broken is set when a batch failed after its first write: replies may
	// be left unread on the stream.
	broken bool
}

// NewConnection wraps a network connection.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		Conn:   conn,
		Reader: bufio.NewReader(conn),
		Writer: bufio.NewWriter(conn),
	}
}

// Close closes the network connection. It is safe to call more than once.
func (c *Connection) Close() error {
	err := net.ErrClosed
	c.closeOnce.Do(func() {
		err = c.Conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

// Reusable reports whether the connection can serve another command.
// Pools destroy connections that are not reusable instead of keeping them.
func (c *Connection) Reusable() bool {
	return !c.broken
}

// Send writes one command and reads its reply. Error replies are returned as
// a Value, not as a Go error.
func (c *Connection) Send(ctx context.Context, args []string) (resp.Value, error) {
	replies, err := c.SendBatch(ctx, [][]string{args})
	if err != nil {
		return resp.Value{}, err
	}
	return replies[0], nil
}

// SendBatch writes all commands with a single flush, then reads one reply
// per command, in order.
func (c *Connection) SendBatch(ctx context.Context, cmds [][]string) ([]resp.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stop := c.watch(ctx)
	defer stop()

	for _, args := range cmds {
		if err := resp.WriteCommand(c.Writer, args); err != nil {
			return nil, c.fail(ctx, err)
		}
	}
	if err := c.Writer.Flush(); err != nil {
		return nil, c.fail(ctx, &resp.ConnectionError{Op: "flush", Err: err})
	}

	replies := make([]resp.Value, len(cmds))
	for i := range replies {
		v, err := resp.ReadValue(c.Reader)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
		replies[i] = v
	}
	return replies, nil
}

func (c *Connection) fail(ctx context.Context, err error) error {
	if resp.ShouldCloseConnection(err) {
		c.broken = true
	}
	return c.contextError(ctx, err)
}

// watch applies the context deadline to the socket and interrupts blocked
// I/O when ctx is canceled.
func (c *Connection) watch(ctx context.Context) (stop func() bool) {
	deadline, _ := ctx.Deadline()
	_ = c.SetDeadline(deadline)

	return context.AfterFunc(ctx, func() {
		_ = c.SetDeadline(time.Unix(1, 0))
	})
}

// contextError reports the context error when the I/O failure was caused by
// a canceled context. The connection state is undefined either way.
func (c *Connection) contextError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &resp.ConnectionError{Op: "read", Err: ctxErr}
	}
	// the socket deadline can fire before the context timer
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return &resp.ConnectionError{Op: "read", Err: context.DeadlineExceeded}
	}
	return err
}

// handshake holds the commands sent on every new connection.
type handshake struct {
	username   string
	password   string
	db         int
	clientName string
}

func (h handshake) commands() [][]string {
	var cmds [][]string
	if h.password != "" {
		if h.username != "" {
			cmds = append(cmds, []string{"AUTH", h.username, h.password})
		} else {
			cmds = append(cmds, []string{"AUTH", h.password})
		}
	}
	if h.db != 0 {
		cmds = append(cmds, []string{"SELECT", strconv.Itoa(h.db)})
	}
	if h.clientName != "" {
		cmds = append(cmds, []string{"CLIENT", "SETNAME", h.clientName})
	}
	return cmds
}

// handshake authenticates the connection and selects the database.
func (c *Connection) handshake(ctx context.Context, h handshake) error {
	cmds := h.commands()
	if len(cmds) == 0 {
		return nil
	}

	replies, err := c.SendBatch(ctx, cmds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	for i, reply := range replies {
		if err := reply.Err(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrHandshake, cmds[i][0], err)
		}
	}
	return nil
}
