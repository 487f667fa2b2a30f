package redisstack

import (
	"context"
	"time"
)

// Pool is a pool of connections to one server.
// NewChannelPool is the default implementation, NewPuddlePool wraps jackc/puddle.
type Pool interface {
	// Acquire returns an idle connection, dials a new one when the pool is
	// not full, or waits for a release until ctx is done.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle takes every idle connection out of the pool.
	// Used by the health check.
	AcquireAllIdle() []Resource

	Close()

	Stats() PoolStats
}

// Resource is a connection checked out of a Pool. Exactly one of Release,
// ReleaseUnused or Destroy must be called.
type Resource interface {
	Value() *Connection

	// Release returns the connection to the pool, or destroys it when it is
	// no longer Reusable.
	Release()

	// ReleaseUnused returns the connection without refreshing its idle time.
	ReleaseUnused()

	// Destroy closes the connection and removes it from the pool.
	Destroy()

	CreationTime() time.Time
	IdleDuration() time.Duration
}

// PoolFactory creates the pool of one server.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)
