package redisstack

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"
)

// NewPuddlePool creates a pool backed by jackc/puddle. Select it with
// Config.NewPool.
func NewPuddlePool(dial func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := dial(ctx)
			if err != nil {
				p.dialErrors.Add(1)
				return nil, err
			}
			p.created.Add(1)
			return conn, nil
		},
		Destructor: func(conn *Connection) {
			p.destroyed.Add(1)
			_ = conn.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}

	p.pool = pool
	return p, nil
}

// puddlePool adapts puddle.Pool. puddle does not count dials and closes,
// the hooks above do.
type puddlePool struct {
	pool *puddle.Pool[*Connection]

	created    atomic.Uint64
	destroyed  atomic.Uint64
	dialErrors atomic.Uint64
}

// puddleConn destroys connections left unusable by a failed command on
// Release, as the channel pool does.
type puddleConn struct {
	res *puddle.Resource[*Connection]
}

func (r puddleConn) Value() *Connection { return r.res.Value() }

func (r puddleConn) Release() {
	if !r.res.Value().Reusable() {
		r.res.Destroy()
		return
	}
	r.res.Release()
}

func (r puddleConn) ReleaseUnused() { r.res.ReleaseUnused() }

func (r puddleConn) Destroy() { r.res.Destroy() }

func (r puddleConn) CreationTime() time.Time { return r.res.CreationTime() }

func (r puddleConn) IdleDuration() time.Duration { return r.res.IdleDuration() }

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if errors.Is(err, puddle.ErrClosedPool) {
		return nil, ErrPoolClosed
	}
	if err != nil {
		return nil, err
	}
	return puddleConn{res: res}, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	idle := p.pool.AcquireAllIdle()
	all := make([]Resource, 0, len(idle))
	for _, res := range idle {
		all = append(all, puddleConn{res: res})
	}
	return all
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

// Stats maps puddle's counters: an empty acquire is one that waited for a
// dial or a release.
func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		AcquireCount:      uint64(s.AcquireCount() + s.CanceledAcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		CreatedConns:      p.created.Load(),
		DestroyedConns:    p.destroyed.Load(),
		AcquireErrors:     uint64(s.CanceledAcquireCount()) + p.dialErrors.Load(),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
	}
}
