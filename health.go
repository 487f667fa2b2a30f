package redisstack

import (
	"context"
	"time"
)

// maintain runs the health check of every pool each HealthCheckInterval
// until ctx is canceled.
func (c *Client) maintain(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sp := range c.serverPools() {
				c.checkIdle(ctx, sp)
			}
		}
	}
}

// checkIdle takes the idle connections of sp out of the pool, retires the
// ones past MaxConnLifetime or MaxConnIdleTime or not answering PING, and
// puts the others back without refreshing their idle time.
func (c *Client) checkIdle(ctx context.Context, sp *ServerPool) {
	now := time.Now()

	for _, res := range sp.pool.AcquireAllIdle() {
		reason := c.retireReason(res, now)
		if reason == "" {
			if err := c.ping(ctx, res.Value()); err != nil {
				reason = err.Error()
			}
		}

		if reason != "" {
			c.config.Logger.Debug("redisstack: retiring connection", "addr", sp.addr, "reason", reason)
			res.Destroy()
			continue
		}
		res.ReleaseUnused()
	}
}

func (c *Client) retireReason(res Resource, now time.Time) string {
	switch {
	case c.config.MaxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.config.MaxConnLifetime:
		return "max lifetime"
	case c.config.MaxConnIdleTime > 0 && res.IdleDuration() > c.config.MaxConnIdleTime:
		return "max idle time"
	}
	return ""
}

// ping checks an idle connection with PING, bounded by the check interval.
func (c *Client) ping(ctx context.Context, conn *Connection) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthCheckInterval)
	defer cancel()

	cmd := Ping("")
	reply, err := conn.Send(ctx, cmd.Args())
	if err != nil {
		return err
	}
	_, err = cmd.Decode(reply)
	return err
}
