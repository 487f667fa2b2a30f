package redisstack

import (
	"sync/atomic"
	"time"
)

// PoolStats is a snapshot of the connection pool of one server.
// promstats exports the gauges and counters under the redisstack_pool_ prefix.
//
// The struct fills one 64-byte cache line.
type PoolStats struct {
	AcquireCount      uint64 // Acquire calls
	AcquireWaitCount  uint64 // Acquire calls that waited for a release
	CreatedConns      uint64 // connections dialed, handshake included
	DestroyedConns    uint64 // connections closed by the pool
	AcquireErrors     uint64 // Acquire calls that failed (dial, cancel, closed pool)
	AcquireWaitTimeNs uint64 // cumulated wait of AcquireWaitCount

	TotalConns  int32 // open connections, idle and checked out
	IdleConns   int32
	ActiveConns int32 // checked out
	_           int32
}

// ClientStats is a snapshot of the command counters of a Client.
//
// The struct fills one 64-byte cache line.
type ClientStats struct {
	Commands        uint64 // single commands, script fallbacks included
	Pipelines       uint64 // batches sent by Multi.ExecAsPipeline
	Transactions    uint64 // MULTI/EXEC batches
	PipelinedCmds   uint64 // commands of batches, MULTI and EXEC included
	ScriptFallbacks uint64 // EVALSHA answered NOSCRIPT and sent again as EVAL
	ErrorReplies    uint64 // error replies of single commands
	Errors          uint64 // transport, pool and routing failures
	_               uint64
}

// poolStatsCollector is embedded by value in pools; its zero value is ready to use.
// Each method accounts for one connection lifecycle event.
type poolStatsCollector struct {
	acquires      atomic.Uint64
	acquireWaits  atomic.Uint64
	waitNanos     atomic.Uint64
	acquireErrors atomic.Uint64
	created       atomic.Uint64
	destroyed     atomic.Uint64

	total  atomic.Int32
	idle   atomic.Int32
	active atomic.Int32
}

func (c *poolStatsCollector) acquireStarted() { c.acquires.Add(1) }

func (c *poolStatsCollector) acquireFailed() { c.acquireErrors.Add(1) }

func (c *poolStatsCollector) waited(d time.Duration) {
	c.acquireWaits.Add(1)
	c.waitNanos.Add(uint64(d.Nanoseconds()))
}

// dialed: a new connection, handed straight to the caller.
func (c *poolStatsCollector) dialed() {
	c.created.Add(1)
	c.total.Add(1)
	c.active.Add(1)
}

func (c *poolStatsCollector) checkedOut() {
	c.idle.Add(-1)
	c.active.Add(1)
}

func (c *poolStatsCollector) checkedIn() {
	c.active.Add(-1)
	c.idle.Add(1)
}

func (c *poolStatsCollector) closedActive() {
	c.destroyed.Add(1)
	c.total.Add(-1)
	c.active.Add(-1)
}

func (c *poolStatsCollector) closedIdle() {
	c.destroyed.Add(1)
	c.total.Add(-1)
	c.idle.Add(-1)
}

func (c *poolStatsCollector) snapshot() PoolStats {
	return PoolStats{
		AcquireCount:      c.acquires.Load(),
		AcquireWaitCount:  c.acquireWaits.Load(),
		CreatedConns:      c.created.Load(),
		DestroyedConns:    c.destroyed.Load(),
		AcquireErrors:     c.acquireErrors.Load(),
		AcquireWaitTimeNs: c.waitNanos.Load(),
		TotalConns:        c.total.Load(),
		IdleConns:         c.idle.Load(),
		ActiveConns:       c.active.Load(),
	}
}

type clientStatsCollector struct {
	commands        atomic.Uint64
	pipelines       atomic.Uint64
	transactions    atomic.Uint64
	pipelinedCmds   atomic.Uint64
	scriptFallbacks atomic.Uint64
	errorReplies    atomic.Uint64
	errors          atomic.Uint64
}

func (c *clientStatsCollector) recordCommand() { c.commands.Add(1) }

// recordBatch counts one Multi batch of size commands as written on the wire.
func (c *clientStatsCollector) recordBatch(transaction bool, size int) {
	if transaction {
		c.transactions.Add(1)
	} else {
		c.pipelines.Add(1)
	}
	c.pipelinedCmds.Add(uint64(size))
}

func (c *clientStatsCollector) recordScriptFallback() { c.scriptFallbacks.Add(1) }

func (c *clientStatsCollector) recordErrorReply() { c.errorReplies.Add(1) }

func (c *clientStatsCollector) recordError() { c.errors.Add(1) }

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Commands:        c.commands.Load(),
		Pipelines:       c.pipelines.Load(),
		Transactions:    c.transactions.Load(),
		PipelinedCmds:   c.pipelinedCmds.Load(),
		ScriptFallbacks: c.scriptFallbacks.Load(),
		ErrorReplies:    c.errorReplies.Load(),
		Errors:          c.errors.Load(),
	}
}
