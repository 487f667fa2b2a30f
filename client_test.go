package redisstack

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/resp"
)

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, []string{DefaultAddr}, client.config.Addrs)
	assert.EqualValues(t, DefaultMaxSize, client.config.MaxSize)
	assert.NotNil(t, client.TS())
	assert.NotNil(t, client.FT())
	assert.NotNil(t, client.JSON())
	assert.Same(t, client, client.Legacy().V4())
}

func TestNewClientEmptyAddress(t *testing.T) {
	_, err := NewClient(Config{Addrs: []string{"localhost:6379", ""}})
	require.Error(t, err)

	_, err = NewClient(Config{ReplicaAddrs: []string{""}})
	require.Error(t, err)
}

func TestClientBasicCommands(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	ctx := context.Background()

	require.NoError(t, client.Ping(ctx))

	echo, err := client.Echo(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", echo)

	ok, err := client.Set(ctx, "key", "value", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	value, err := client.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	n, err := client.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	deleted, err := client.Del(ctx, "key", "missing")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = client.Get(ctx, "key")
	assert.ErrorIs(t, err, command.ErrNil)

	stats := client.Stats()
	assert.EqualValues(t, 7, stats.Commands)
	assert.Zero(t, stats.Errors)
}

func TestClientErrorReply(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	ctx := context.Background()

	// Execute returns error replies as values
	reply, err := client.Execute(ctx, command.Raw("BOGUS"))
	require.NoError(t, err)
	assert.True(t, reply.IsError())

	// Do turns them into errors
	_, err = command.Do(ctx, client, command.Raw("BOGUS"))
	require.Error(t, err)
	assert.True(t, resp.IsServerError(err, "ERR"))

	assert.EqualValues(t, 2, client.Stats().ErrorReplies)

	// the connection is still usable
	require.NoError(t, client.Ping(ctx))
}

func TestClientScriptFallback(t *testing.T) {
	client, server := newTestClient(t, Config{})
	ctx := context.Background()

	script := command.DefineScript(1, "return redis.call('GET', KEYS[1])", func(key string) []string {
		return []string{key}
	}, command.String)

	result, err := command.Do(ctx, client, script.Call("key"))
	require.NoError(t, err)
	assert.Equal(t, "from eval", result)

	assert.Equal(t, []string{"EVALSHA", "EVAL"}, server.names())
	assert.EqualValues(t, 1, client.Stats().ScriptFallbacks)
}

func TestClientHandshake(t *testing.T) {
	client, server := newTestClient(t, Config{
		Username:   "app",
		Password:   "secret",
		DB:         2,
		ClientName: "worker-1",
	})

	require.NoError(t, client.Ping(context.Background()))

	assert.Equal(t, [][]string{
		{"AUTH", "app", "secret"},
		{"SELECT", "2"},
		{"CLIENT", "SETNAME", "worker-1"},
		{"PING"},
	}, server.commands())
}

func TestClientHandshakeFailure(t *testing.T) {
	server := newFakeServer(t, func(args []string) resp.Value {
		if args[0] == "AUTH" {
			return resp.ErrorReply("WRONGPASS invalid username-password pair")
		}
		return resp.SimpleString("PONG")
	})

	var mu sync.Mutex
	var events []Event

	client, err := NewClient(Config{
		Addrs:    []string{server.addr},
		Password: "wrong",
		OnEvent: func(e Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	defer client.Close()

	err = client.Ping(context.Background())
	require.ErrorIs(t, err, ErrHandshake)
	assert.True(t, resp.IsServerError(err, "WRONGPASS"))

	mu.Lock()
	defer mu.Unlock()

	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, EventConnect)
	assert.Contains(t, types, EventError)
	assert.NotContains(t, types, EventReady)
}

func TestClientEvents(t *testing.T) {
	var mu sync.Mutex
	var types []EventType

	client, server := newTestClient(t, Config{
		OnEvent: func(e Event) {
			mu.Lock()
			types = append(types, e.Type)
			mu.Unlock()
		},
	})

	require.NoError(t, client.Ping(context.Background()))
	client.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventConnect, EventReady, EventEnd}, types)
	assert.EqualValues(t, 1, server.conns.Load())
}

func TestClientDialFailure(t *testing.T) {
	// reserve a port, then free it: nothing listens there
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	client, err := NewClient(Config{Addrs: []string{addr}})
	require.NoError(t, err)
	defer client.Close()

	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, client.Stats().Errors)
}

func TestClientReplicaRouting(t *testing.T) {
	primary := newFakeServer(t, newMemStore().handle)
	replica := newFakeServer(t, newMemStore().handle)

	client, err := NewClient(Config{
		Addrs:        []string{primary.addr},
		ReplicaAddrs: []string{replica.addr},
	})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.Set(ctx, "key", "value", nil)
	require.NoError(t, err)

	_, err = client.Get(ctx, "key")
	require.ErrorIs(t, err, command.ErrNil, "the replica has its own (empty) store")

	assert.Equal(t, []string{"SET"}, primary.names())
	assert.Equal(t, []string{"GET"}, replica.names())
}

func TestClientKeySharding(t *testing.T) {
	first := newFakeServer(t, newMemStore().handle)
	second := newFakeServer(t, newMemStore().handle)

	client, err := NewClient(Config{
		Addrs:        []string{first.addr, second.addr},
		SelectServer: staticSelector(1),
	})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	_, err = client.Set(ctx, "key", "value", nil)
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx))

	assert.Equal(t, []string{"PING"}, first.names(), "keyless commands go to the first server")
	assert.Equal(t, []string{"SET"}, second.names())
	assert.Len(t, client.AllPoolStats(), 2)
}

func TestClientClosed(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	client.Close()
	client.Close()

	_, err := client.Get(context.Background(), "key")
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestClientCanceledContext(t *testing.T) {
	client, server := newTestClient(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "key")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, server.commands())
}

func TestClientTimeoutDestroysConnection(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	server := newFakeServer(t, func(args []string) resp.Value {
		if args[0] == "BLPOP" {
			<-block
		}
		return resp.SimpleString("PONG")
	})

	client, err := NewClient(Config{Addrs: []string{server.addr}})
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Execute(ctx, command.Raw("BLPOP", "queue", "0"))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	stats := client.AllPoolStats()
	require.Len(t, stats, 1)
	assert.EqualValues(t, 1, stats[0].PoolStats.DestroyedConns)
	assert.EqualValues(t, 0, stats[0].PoolStats.TotalConns)
}

func TestClientDuplicate(t *testing.T) {
	client, _ := newTestClient(t, Config{})

	dup, err := client.Duplicate()
	require.NoError(t, err)
	defer dup.Close()

	require.NoError(t, dup.Ping(context.Background()))
	assert.EqualValues(t, 1, dup.Stats().Commands)
	assert.Zero(t, client.Stats().Commands)
}

func TestClientHealthCheck(t *testing.T) {
	client, server := newTestClient(t, Config{HealthCheckInterval: 20 * time.Millisecond})

	require.NoError(t, client.Ping(context.Background()))

	// idle connections are pinged
	require.Eventually(t, func() bool {
		return len(server.commands()) >= 3
	}, time.Second, 10*time.Millisecond)

	// healthy connections are kept
	stats := client.AllPoolStats()[0].PoolStats
	assert.EqualValues(t, 1, stats.CreatedConns)
	assert.Zero(t, stats.DestroyedConns)
}

func TestClientHealthCheckMaxLifetime(t *testing.T) {
	client, _ := newTestClient(t, Config{
		HealthCheckInterval: 20 * time.Millisecond,
		MaxConnLifetime:     time.Millisecond,
	})

	require.NoError(t, client.Ping(context.Background()))

	require.Eventually(t, func() bool {
		return client.AllPoolStats()[0].PoolStats.DestroyedConns == 1
	}, time.Second, 10*time.Millisecond)
}

func TestClientCircuitBreaker(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	client, err := NewClient(Config{
		Addrs:             []string{addr},
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute),
	})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	for range 3 {
		require.Error(t, client.Ping(ctx))
	}

	err = client.Ping(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	stats := client.AllPoolStats()
	require.Len(t, stats, 1)
	assert.Equal(t, gobreaker.StateOpen, stats[0].CircuitBreakerState)
}
