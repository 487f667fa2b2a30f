package redisstack

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/pior/redisstack/command"
	"github.com/pior/redisstack/redisjson"
	"github.com/pior/redisstack/resp"
	"github.com/pior/redisstack/search"
	"github.com/pior/redisstack/timeseries"
	"github.com/sony/gobreaker/v2"
)

const (
	// DefaultAddr is used when Config.Addrs is empty.
	DefaultAddr = "localhost:6379"

	// DefaultMaxSize is the pool size used when Config.MaxSize is zero.
	DefaultMaxSize = 10
)

// ErrClientClosed is returned by every call made after Close.
var ErrClientClosed = errors.New("redisstack: client closed")

// Config holds configuration for the client and its connection pools.
// The zero value connects to DefaultAddr.
type Config struct {
	// Addrs are the primary servers. Keys are spread over them with SelectServer.
	Addrs []string

	// ReplicaAddrs serve read-only commands when set.
	// Keys are spread over them with SelectServer.
	ReplicaAddrs []string

	// Username and Password are sent with AUTH on every new connection.
	// Username is optional (servers before 6.0 only know a password).
	Username string
	Password string

	// DB is selected on every new connection when non-zero.
	DB int

	// ClientName is set with CLIENT SETNAME on every new connection.
	ClientName string

	// MaxSize is the maximum number of connections per server.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle before being closed.
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often to check idle connections for health.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// NewPool is the connection pool factory function.
	// If nil, uses the channel-based pool. NewPuddlePool is the alternative.
	NewPool PoolFactory

	// NewCircuitBreaker creates a circuit breaker for a server.
	// Called once per server address when the pool is created.
	// If nil, no circuit breaker is used. See NewCircuitBreakerConfig.
	NewCircuitBreaker func(serverAddr string) *gobreaker.CircuitBreaker[bool]

	// SelectServer picks which server to use for a key.
	// If nil, uses DefaultServerSelector.
	SelectServer ServerSelector

	// Logger receives connection lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger

	// OnEvent is called synchronously for every connection event. It must not block.
	OnEvent func(Event)
}

func (c Config) withDefaults() Config {
	if len(c.Addrs) == 0 {
		c.Addrs = []string{DefaultAddr}
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.NewPool == nil {
		c.NewPool = NewChannelPool
	}
	if c.SelectServer == nil {
		c.SelectServer = DefaultServerSelector
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) emit(event Event) {
	if c.OnEvent != nil {
		c.OnEvent(event)
	}
}

// connect dials addr and runs the handshake.
func (c Config) connect(ctx context.Context, addr string) (*Connection, error) {
	netConn, err := c.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.Logger.Warn("redisstack: dial failed", "addr", addr, "error", err)
		c.emit(Event{Type: EventError, Addr: addr, Err: err})
		return nil, err
	}
	c.emit(Event{Type: EventConnect, Addr: addr})

	conn := NewConnection(netConn)
	conn.onClose = func() {
		c.Logger.Debug("redisstack: connection closed", "addr", addr)
		c.emit(Event{Type: EventEnd, Addr: addr})
	}

	err = conn.handshake(ctx, handshake{
		username:   c.Username,
		password:   c.Password,
		db:         c.DB,
		clientName: c.ClientName,
	})
	if err != nil {
		c.Logger.Warn("redisstack: handshake failed", "addr", addr, "error", err)
		c.emit(Event{Type: EventError, Addr: addr, Err: err})
		_ = conn.Close()
		return nil, err
	}

	c.Logger.Debug("redisstack: connection ready", "addr", addr)
	c.emit(Event{Type: EventReady, Addr: addr})
	return conn, nil
}

// Client is a Redis client backed by one connection pool per server.
// It is safe for concurrent use.
//
// Module commands are reached through namespaced accessors:
//
//	client.TS().Add(ctx, "temperature", timeseries.Now, 21.5, nil)
//	client.FT().Search(ctx, "idx", "@name:alice", nil)
//	client.JSON().Set(ctx, "users:1", redisjson.RootPath, user, "")
type Client struct {
	config Config

	mu     sync.RWMutex
	pools  map[string]*ServerPool
	closed bool

	stopMaintenance context.CancelFunc
	maintenance     sync.WaitGroup

	stats clientStatsCollector

	ts     *timeseries.Commands
	ft     *search.Commands
	json   *redisjson.Commands
	legacy *Legacy
}

var _ command.Executor = (*Client)(nil)

// NewClient creates a client. Connections are dialed lazily.
func NewClient(config Config) (*Client, error) {
	config = config.withDefaults()

	for _, addr := range slices.Concat(config.Addrs, config.ReplicaAddrs) {
		if addr == "" {
			return nil, errors.New("redisstack: empty server address")
		}
	}

	client := &Client{
		config: config,
		pools:  make(map[string]*ServerPool),
	}
	client.ts = timeseries.New(client)
	client.ft = search.New(client)
	client.json = redisjson.New(client)
	client.legacy = newLegacy(client)

	ctx, cancel := context.WithCancel(context.Background())
	client.stopMaintenance = cancel
	if config.HealthCheckInterval > 0 {
		client.maintenance.Go(func() {
			client.maintain(ctx)
		})
	}

	return client, nil
}

// TS returns the RedisTimeSeries commands.
func (c *Client) TS() *timeseries.Commands { return c.ts }

// FT returns the RediSearch commands.
func (c *Client) FT() *search.Commands { return c.ft }

// JSON returns the RedisJSON commands.
func (c *Client) JSON() *redisjson.Commands { return c.json }

// Duplicate returns an independent client with the same configuration,
// typically to hold blocking or subscriber connections. The two clients share
// no state.
func (c *Client) Duplicate() (*Client, error) {
	return NewClient(c.config)
}

// Close stops the health checks and closes every pool. Connections held by
// running calls are closed when released.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopMaintenance()
	pools := c.pools
	c.mu.Unlock()

	c.maintenance.Wait()
	for _, sp := range pools {
		sp.pool.Close()
	}
}

// Execute sends one command and returns its raw reply. Error replies are
// returned as values (see resp.Value.Err); command.Do turns them into errors.
//
// A script invocation (EVALSHA) answered with NOSCRIPT is sent again once as
// EVAL with the script body.
func (c *Client) Execute(ctx context.Context, cmd command.Completed) (resp.Value, error) {
	if err := ctx.Err(); err != nil {
		return resp.Value{}, err
	}

	sp, err := c.serverFor(cmd)
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	c.stats.recordCommand()
	reply, err := sp.Execute(ctx, cmd.Args())
	if err != nil {
		c.stats.recordError()
		return resp.Value{}, err
	}

	if fallback, ok := cmd.(command.EvalFallback); ok && isNoScript(reply) && fallback.EvalArgs() != nil {
		c.stats.recordScriptFallback()
		c.stats.recordCommand()
		reply, err = sp.Execute(ctx, fallback.EvalArgs())
		if err != nil {
			c.stats.recordError()
			return resp.Value{}, err
		}
	}

	if reply.IsError() {
		c.stats.recordErrorReply()
	}
	return reply, nil
}

func isNoScript(reply resp.Value) bool {
	return reply.IsError() && resp.IsServerError(reply.Err(), "NOSCRIPT")
}

// executeBatch sends cmds on one connection of the server owning key.
func (c *Client) executeBatch(ctx context.Context, key string, keyed, readOnly bool, cmds [][]string, transaction bool) ([]resp.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sp, err := c.selectPool(key, keyed, readOnly)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	c.stats.recordBatch(transaction, len(cmds))
	replies, err := sp.ExecuteBatch(ctx, cmds)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}
	return replies, nil
}

func (c *Client) serverFor(cmd command.Completed) (*ServerPool, error) {
	key, keyed := cmd.Key()
	return c.selectPool(key, keyed, cmd.IsReadOnly())
}

// selectPool picks a server: replicas serve read-only commands when
// configured, keys are spread with SelectServer and keyless commands go to
// the first server.
func (c *Client) selectPool(key string, keyed, readOnly bool) (*ServerPool, error) {
	addrs := c.config.Addrs
	if readOnly && len(c.config.ReplicaAddrs) > 0 {
		addrs = c.config.ReplicaAddrs
	}

	index := 0
	if keyed && len(addrs) > 1 {
		index = c.config.SelectServer(key, len(addrs))
	}
	return c.getOrCreatePool(addrs[index])
}

// getOrCreatePool returns the pool of addr, creating it on first use.
func (c *Client) getOrCreatePool(addr string) (*ServerPool, error) {
	c.mu.RLock()
	sp, ok := c.pools[addr]
	closed := c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClientClosed
	case ok:
		return sp, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	// another caller may have created it meanwhile
	if sp, ok := c.pools[addr]; ok {
		return sp, nil
	}

	sp, err := NewServerPool(addr, c.config)
	if err != nil {
		return nil, err
	}
	c.pools[addr] = sp
	return sp, nil
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllPoolStats returns one snapshot per server contacted so far, in no
// particular order.
func (c *Client) AllPoolStats() []ServerPoolStats {
	var all []ServerPoolStats
	for _, sp := range c.serverPools() {
		all = append(all, sp.Stats())
	}
	return all
}

func (c *Client) serverPools() []*ServerPool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Collect(maps.Values(c.pools))
}
