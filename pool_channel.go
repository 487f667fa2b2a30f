package redisstack

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pior/redisstack/internal/coarsetime"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("redisstack: pool closed")

// NewChannelPool creates the default pool. Idle connections wait in a
// buffered channel; a second channel holds one slot per open connection, so
// a caller blocked in Acquire dials as soon as a connection is destroyed
// instead of waiting for a release.
func NewChannelPool(dial func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	if maxSize <= 0 {
		return nil, errors.New("redisstack: pool max size must be > 0")
	}
	return &channelPool{
		dial:    dial,
		idle:    make(chan *pooledConn, maxSize),
		slots:   make(chan struct{}, maxSize),
		closing: make(chan struct{}),
	}, nil
}

type channelPool struct {
	dial func(ctx context.Context) (*Connection, error)

	idle    chan *pooledConn
	slots   chan struct{}
	closing chan struct{}

	// mu orders releases into idle against Close draining it
	mu     sync.Mutex
	closed bool

	stats poolStatsCollector
}

// pooledConn is a Resource of the channel pool.
type pooledConn struct {
	conn     *Connection
	pool     *channelPool
	created  time.Time
	lastUsed time.Time
}

func (r *pooledConn) Value() *Connection { return r.conn }

func (r *pooledConn) CreationTime() time.Time { return r.created }

func (r *pooledConn) IdleDuration() time.Duration { return coarsetime.Since(r.lastUsed) }

// Release returns the connection to the pool, or destroys it when a failed
// command left it unusable.
func (r *pooledConn) Release() {
	r.lastUsed = coarsetime.Now()
	r.pool.checkIn(r)
}

// ReleaseUnused keeps the idle time running: health checks do not count as use.
func (r *pooledConn) ReleaseUnused() {
	r.pool.checkIn(r)
}

func (r *pooledConn) Destroy() {
	r.pool.discard(r)
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.acquireStarted()

	select {
	case <-p.closing:
		p.stats.acquireFailed()
		return nil, ErrPoolClosed
	default:
	}

	select {
	case r := <-p.idle:
		p.stats.checkedOut()
		return r, nil
	default:
	}

	select {
	case p.slots <- struct{}{}:
		return p.open(ctx)
	default:
	}

	start := coarsetime.Now()
	select {
	case r := <-p.idle:
		p.stats.waited(coarsetime.Since(start))
		p.stats.checkedOut()
		return r, nil
	case p.slots <- struct{}{}:
		p.stats.waited(coarsetime.Since(start))
		return p.open(ctx)
	case <-p.closing:
		p.stats.acquireFailed()
		return nil, ErrPoolClosed
	case <-ctx.Done():
		p.stats.acquireFailed()
		return nil, ctx.Err()
	}
}

// open dials a connection in a slot taken by the caller.
func (p *channelPool) open(ctx context.Context) (Resource, error) {
	conn, err := p.dial(ctx)
	if err != nil {
		<-p.slots
		p.stats.acquireFailed()
		return nil, err
	}

	p.stats.dialed()
	now := coarsetime.Now()
	return &pooledConn{conn: conn, pool: p, created: now, lastUsed: now}, nil
}

func (p *channelPool) checkIn(r *pooledConn) {
	if !r.conn.Reusable() {
		p.discard(r)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.closeConn(r)
		p.stats.closedActive()
		return
	}

	// idle has room for every slot
	p.idle <- r
	p.stats.checkedIn()
}

func (p *channelPool) discard(r *pooledConn) {
	p.closeConn(r)
	p.stats.closedActive()
}

func (p *channelPool) closeConn(r *pooledConn) {
	_ = r.conn.Close()
	<-p.slots
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var all []Resource
	for {
		select {
		case r := <-p.idle:
			p.stats.checkedOut()
			all = append(all, r)
		default:
			return all
		}
	}
}

// Close closes the idle connections and fails pending and future Acquire
// calls. Checked out connections are closed when released.
func (p *channelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.closing)

	for {
		select {
		case r := <-p.idle:
			p.closeConn(r)
			p.stats.closedIdle()
		default:
			return
		}
	}
}

func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
