package redisstack

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pior/redisstack/resp"
)

func createListener(t testing.TB, handler func(conn net.Conn)) string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "failed to start test server")

	t.Cleanup(func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(c net.Conn) {
				defer c.Close()

				if handler != nil {
					handler(c)
				}
			}(conn)
		}
	}()

	return listener.Addr().String()
}

// fakeServer speaks RESP and answers commands with a handler. MULTI/EXEC is
// handled by the server: commands are run by the handler when queued, an
// error reply starting with "ERR syntax" or "ERR unknown" rejects the
// command, and the EXEC reply is the array of results. A handler reply to
// EXEC itself (non-zero Value) replaces the array, e.g. a null array for a
// WATCH abort.
type fakeServer struct {
	addr    string
	handler func(args []string) resp.Value

	conns atomic.Int32

	mu       sync.Mutex
	received [][]string
}

func newFakeServer(t testing.TB, handler func(args []string) resp.Value) *fakeServer {
	s := &fakeServer{handler: handler}
	s.addr = createListener(t, s.serve)
	return s
}

func (s *fakeServer) commands() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.received...)
}

// names returns the command names received, in order.
func (s *fakeServer) names() []string {
	var names []string
	for _, args := range s.commands() {
		names = append(names, strings.ToUpper(args[0]))
	}
	return names
}

func (s *fakeServer) serve(conn net.Conn) {
	s.conns.Add(1)

	reader := bufio.NewReader(conn)
	var (
		inMulti bool
		aborted bool
		queued  []resp.Value
	)

	for {
		req, err := resp.ReadValue(reader)
		if err != nil {
			return
		}

		args := make([]string, len(req.Array))
		for i, v := range req.Array {
			args[i] = v.Str
		}

		s.mu.Lock()
		s.received = append(s.received, args)
		s.mu.Unlock()

		var reply resp.Value
		switch name := strings.ToUpper(args[0]); {
		case name == "MULTI":
			inMulti, aborted, queued = true, false, nil
			reply = resp.SimpleString("OK")

		case name == "EXEC" && inMulti:
			inMulti = false
			switch override := s.handler(args); {
			case aborted:
				reply = resp.ErrorReply("EXECABORT Transaction discarded because of previous errors.")
			case override.Kind != 0:
				reply = override
			default:
				reply = resp.ArrayOf(queued...)
			}

		case inMulti:
			result := s.handler(args)
			if result.IsError() && (strings.HasPrefix(result.Str, "ERR syntax") || strings.HasPrefix(result.Str, "ERR unknown")) {
				aborted = true
				reply = result
			} else {
				queued = append(queued, result)
				reply = resp.SimpleString("QUEUED")
			}

		default:
			reply = s.handler(args)
		}

		if err := resp.WriteValue(conn, reply); err != nil {
			return
		}
	}
}

// memStore is a tiny in-memory server for the commands used in tests.
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	scripts map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, scripts: map[string]string{}}
}

func (m *memStore) handle(args []string) resp.Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch strings.ToUpper(args[0]) {
	case "PING":
		if len(args) > 1 {
			return resp.BulkString(args[1])
		}
		return resp.SimpleString("PONG")
	case "ECHO":
		return resp.BulkString(args[1])
	case "AUTH", "SELECT":
		return resp.SimpleString("OK")
	case "CLIENT":
		return resp.SimpleString("OK")
	case "SET":
		m.data[args[1]] = args[2]
		return resp.SimpleString("OK")
	case "GET":
		v, ok := m.data[args[1]]
		if !ok {
			return resp.NullBulk()
		}
		return resp.BulkString(v)
	case "DEL":
		var n int64
		for _, key := range args[1:] {
			if _, ok := m.data[key]; ok {
				delete(m.data, key)
				n++
			}
		}
		return resp.Integer(n)
	case "EXISTS":
		var n int64
		for _, key := range args[1:] {
			if _, ok := m.data[key]; ok {
				n++
			}
		}
		return resp.Integer(n)
	case "INCR":
		n, err := strconv.ParseInt(m.data[args[1]], 10, 64)
		if err != nil && m.data[args[1]] != "" {
			return resp.ErrorReply("ERR value is not an integer or out of range")
		}
		n++
		m.data[args[1]] = strconv.FormatInt(n, 10)
		return resp.Integer(n)
	case "EVALSHA":
		if _, ok := m.scripts[args[1]]; !ok {
			return resp.ErrorReply("NOSCRIPT No matching script. Please use EVAL.")
		}
		return resp.BulkString("from cache")
	case "EVAL":
		return resp.BulkString("from eval")
	case "EXEC":
		return resp.Value{}
	default:
		return resp.ErrorReply("ERR unknown command '" + args[0] + "'")
	}
}

// newTestClient returns a client connected to a fake server backed by a memStore.
func newTestClient(t testing.TB, config Config) (*Client, *fakeServer) {
	t.Helper()

	store := newMemStore()
	server := newFakeServer(t, store.handle)

	config.Addrs = []string{server.addr}
	client, err := NewClient(config)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, server
}
