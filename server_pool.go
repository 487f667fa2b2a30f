package redisstack

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/redisstack/resp"
)

// ServerPool is the connection pool of one server address, guarded by an
// optional circuit breaker.
type ServerPool struct {
	addr    string
	pool    Pool
	breaker *gobreaker.CircuitBreaker[bool]
}

// NewServerPool creates the pool of one server. config must have its
// defaults applied (see NewClient).
func NewServerPool(addr string, config Config) (*ServerPool, error) {
	dial := func(ctx context.Context) (*Connection, error) {
		return config.connect(ctx, addr)
	}

	pool, err := config.NewPool(dial, config.MaxSize)
	if err != nil {
		return nil, err
	}

	sp := &ServerPool{addr: addr, pool: pool}
	if config.NewCircuitBreaker != nil {
		sp.breaker = config.NewCircuitBreaker(addr)
	}
	return sp, nil
}

func (sp *ServerPool) Address() string {
	return sp.addr
}

// ServerPoolStats is the snapshot of one server: its pool, and its breaker
// when one is configured (zero values otherwise).
type ServerPoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (sp *ServerPool) Stats() ServerPoolStats {
	s := ServerPoolStats{Addr: sp.addr, PoolStats: sp.pool.Stats()}
	if sp.breaker != nil {
		s.CircuitBreakerState = sp.breaker.State()
		s.CircuitBreakerCounts = sp.breaker.Counts()
	}
	return s
}

// Execute sends one command and returns its reply. Error replies are
// returned as values; Go errors are pool or transport failures.
func (sp *ServerPool) Execute(ctx context.Context, args []string) (resp.Value, error) {
	var reply resp.Value
	err := sp.run(ctx, func(conn *Connection) (err error) {
		reply, err = conn.Send(ctx, args)
		return err
	})
	return reply, err
}

// ExecuteBatch writes all commands contiguously on one connection with a
// single flush and reads one reply per command. No other caller can
// interleave commands in the batch, which MULTI/EXEC relies on.
func (sp *ServerPool) ExecuteBatch(ctx context.Context, cmds [][]string) ([]resp.Value, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	var replies []resp.Value
	err := sp.run(ctx, func(conn *Connection) (err error) {
		replies, err = conn.SendBatch(ctx, cmds)
		return err
	})
	return replies, err
}

// run holds a pooled connection for fn, inside the breaker. Release destroys
// the connection if fn left it unusable.
func (sp *ServerPool) run(ctx context.Context, fn func(conn *Connection) error) error {
	attempt := func() error {
		res, err := sp.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		defer res.Release()
		return fn(res.Value())
	}

	if sp.breaker == nil {
		return attempt()
	}
	_, err := sp.breaker.Execute(func() (bool, error) {
		err := attempt()
		return err == nil, err
	})
	return err
}
