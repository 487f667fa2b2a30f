package redisstack

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/redisstack/resp"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	name  string
	err   error
	reply any
}

func (r *callRecorder) callback(name string) Callback {
	return func(err error, reply any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, recordedCall{name: name, err: err, reply: reply})
	}
}

func (r *callRecorder) get() []recordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedCall(nil), r.calls...)
}

func TestLegacyCall(t *testing.T) {
	client, server := newTestClient(t, Config{})
	legacy := client.Legacy()
	assert.Same(t, client, legacy.V4())

	var rec callRecorder

	legacy.Call("SET", "key", []byte("value"), rec.callback("set"))
	legacy.Wait()

	legacy.Call("GET", "key", rec.callback("get"))
	legacy.Call("SET", "n", 41)
	legacy.Wait()

	legacy.Call("INCR", "n", func(err error, reply any) {
		rec.callback("incr")(err, reply)
	})
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 3)
	assert.Equal(t, recordedCall{name: "set", reply: "OK"}, calls[0])
	assert.Equal(t, recordedCall{name: "get", reply: "value"}, calls[1])
	assert.Equal(t, recordedCall{name: "incr", reply: int64(42)}, calls[2])

	assert.Contains(t, server.commands(), []string{"SET", "n", "41"})
}

func TestLegacyCallUnsupportedArgument(t *testing.T) {
	client, server := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder
	legacy.Call("SET", "key", struct{}{}, rec.callback("set"))
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 1)
	assert.ErrorContains(t, calls[0].err, "unsupported argument type struct {}")
	assert.Nil(t, calls[0].reply)
	assert.Empty(t, server.commands())
}

func TestLegacyErrorReply(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder
	legacy.SendCommand([]string{"BOGUS", "x"}, rec.callback("bogus"))
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 1)
	assert.True(t, resp.IsServerError(calls[0].err, "ERR"))
	assert.Nil(t, calls[0].reply)
}

func TestLegacySendUntransformed(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder
	legacy.Send(Set("key", "value", nil), nil)
	legacy.Wait()

	// replies are native values, the commands' transformers are not applied
	legacy.Send(Get("missing"), rec.callback("get"))
	legacy.Send(Exists("key"), rec.callback("exists"))
	legacy.Wait()

	byName := map[string]recordedCall{}
	for _, call := range rec.get() {
		byName[call.name] = call
	}
	assert.Equal(t, recordedCall{name: "get"}, byName["get"], "a null reply is not an error")
	assert.Equal(t, recordedCall{name: "exists", reply: int64(1)}, byName["exists"])
}

func TestLegacyArgs(t *testing.T) {
	cb := Callback(func(error, any) {})

	tests := []struct {
		name     string
		args     []any
		expected []string
		hasCb    bool
	}{
		{
			name:     "no args",
			expected: []string{"PING"},
		},
		{
			name:     "strings",
			args:     []any{"a", "b"},
			expected: []string{"PING", "a", "b"},
		},
		{
			name:     "flattened slices",
			args:     []any{"a", []string{"b", "c"}, []byte("d")},
			expected: []string{"PING", "a", "b", "c", "d"},
		},
		{
			name:     "numbers",
			args:     []any{1, int64(-2), uint64(3), 1.5},
			expected: []string{"PING", "1", "-2", "3", "1.5"},
		},
		{
			name:     "trailing callback",
			args:     []any{"a", cb},
			expected: []string{"PING", "a"},
			hasCb:    true,
		},
		{
			name:     "trailing func",
			args:     []any{"a", func(error, any) {}},
			expected: []string{"PING", "a"},
			hasCb:    true,
		},
		{
			name:     "trailing nil",
			args:     []any{"a", nil},
			expected: []string{"PING", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, gotCb, err := legacyArgs("PING", tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
			assert.Equal(t, tt.hasCb, gotCb != nil)
		})
	}

	_, _, err := legacyArgs("PING", []any{"a", nil, "b"})
	assert.Error(t, err, "nil is only accepted as a trailing callback")
}

func TestLegacyMulti(t *testing.T) {
	client, server := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder

	multi := legacy.Multi().
		Call("SET", "a", "1", rec.callback("set"))
	multi.V4().Get("a")
	multi.Call("INCR", "a", rec.callback("incr"))
	multi.Send(Exists("a"), nil)
	multi.Exec(rec.callback("exec"))
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 3)
	assert.Equal(t, recordedCall{name: "set", reply: "OK"}, calls[0])
	assert.Equal(t, recordedCall{name: "incr", reply: int64(2)}, calls[1])
	assert.Equal(t, recordedCall{name: "exec", reply: []any{"OK", "1", int64(2), int64(1)}}, calls[2])

	assert.Equal(t, []string{"MULTI", "SET", "GET", "INCR", "EXISTS", "EXEC"}, server.names())
}

func TestLegacyMultiError(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder
	legacy.Multi().
		Call("SET", "a", "1", rec.callback("set")).
		Call("BOGUS", rec.callback("bogus")).
		Exec(rec.callback("exec"))
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 3)
	for _, call := range calls {
		var txErr *TransactionError
		require.ErrorAs(t, call.err, &txErr, call.name)
		assert.Equal(t, 1, txErr.Index)
		assert.Nil(t, call.reply)
	}
}

func TestLegacyMultiInvalidArgument(t *testing.T) {
	client, server := newTestClient(t, Config{})
	legacy := client.Legacy()

	var rec callRecorder
	legacy.Multi().
		Call("SET", "a", map[string]string{}).
		Exec(rec.callback("exec"))
	legacy.Wait()

	calls := rec.get()
	require.Len(t, calls, 1)
	assert.ErrorContains(t, calls[0].err, "unsupported argument type")
	assert.Empty(t, server.commands())
}

func TestLegacyMultiCallDuringExec(t *testing.T) {
	store := newMemStore()
	execReceived := make(chan struct{})
	releaseExec := make(chan struct{})
	server := newFakeServer(t, func(args []string) resp.Value {
		if args[0] == "EXEC" {
			close(execReceived)
			<-releaseExec
			return resp.Value{}
		}
		return store.handle(args)
	})

	client, err := NewClient(Config{Addrs: []string{server.addr}})
	require.NoError(t, err)
	defer client.Close()
	legacy := client.Legacy()

	var rec callRecorder
	multi := legacy.Multi().Call("PING", rec.callback("first"))
	multi.Exec(rec.callback("exec"))

	select {
	case <-execReceived:
	case <-time.After(5 * time.Second):
		close(releaseExec)
		t.Fatal("EXEC not received")
	}
	multi.Call("PING", rec.callback("late"))
	close(releaseExec)
	legacy.Wait()

	calls := map[string]recordedCall{}
	for _, call := range rec.get() {
		calls[call.name] = call
	}
	require.Len(t, calls, 3)
	assert.Equal(t, recordedCall{name: "first", reply: "PONG"}, calls["first"])
	assert.Equal(t, recordedCall{name: "exec", reply: []any{"PONG"}}, calls["exec"])
	assert.ErrorIs(t, calls["late"].err, ErrMultiExecuted)
	assert.Equal(t, 1, multi.V4().Len())
}
