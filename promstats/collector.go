// Package promstats exports client and pool statistics to Prometheus.
//
//	registry := prometheus.NewRegistry()
//	registry.MustRegister(promstats.NewCollector(client))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
package promstats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pior/redisstack"
)

// Source is implemented by *redisstack.Client.
type Source interface {
	Stats() redisstack.ClientStats
	AllPoolStats() []redisstack.ServerPoolStats
}

// Collector reads the stats of a client at scrape time.
type Collector struct {
	source Source

	commands        *prometheus.Desc
	pipelines       *prometheus.Desc
	transactions    *prometheus.Desc
	pipelinedCmds   *prometheus.Desc
	scriptFallbacks *prometheus.Desc
	errorReplies    *prometheus.Desc
	errors          *prometheus.Desc

	poolConnections *prometheus.Desc
	poolAcquires    *prometheus.Desc
	poolWaits       *prometheus.Desc
	poolWaitSeconds *prometheus.Desc
	poolCreated     *prometheus.Desc
	poolDestroyed   *prometheus.Desc
	poolErrors      *prometheus.Desc

	circuitState    *prometheus.Desc
	circuitRequests *prometheus.Desc
	circuitFailures *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for source. Register it once per client.
func NewCollector(source Source) *Collector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("redisstack", "", name), help, labels, nil)
	}

	return &Collector{
		source: source,

		commands:        desc("commands_total", "Single commands sent"),
		pipelines:       desc("pipelines_total", "Batches sent without MULTI/EXEC"),
		transactions:    desc("transactions_total", "MULTI/EXEC batches sent"),
		pipelinedCmds:   desc("pipelined_commands_total", "Commands sent inside pipelines and transactions"),
		scriptFallbacks: desc("script_fallbacks_total", "NOSCRIPT replies retried with EVAL"),
		errorReplies:    desc("error_replies_total", "Error replies returned by the server"),
		errors:          desc("errors_total", "Transport and pool errors"),

		poolConnections: desc("pool_connections", "Connections of the pool", "server", "state"),
		poolAcquires:    desc("pool_acquires_total", "Connection acquire attempts", "server"),
		poolWaits:       desc("pool_acquire_waits_total", "Acquires that waited for a connection", "server"),
		poolWaitSeconds: desc("pool_acquire_wait_seconds_total", "Time spent waiting for a connection", "server"),
		poolCreated:     desc("pool_connections_created_total", "Connections created", "server"),
		poolDestroyed:   desc("pool_connections_destroyed_total", "Connections destroyed", "server"),
		poolErrors:      desc("pool_acquire_errors_total", "Failed acquire attempts", "server"),

		circuitState:    desc("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", "server"),
		circuitRequests: desc("circuit_breaker_requests", "Requests in the current circuit breaker generation", "server"),
		circuitFailures: desc("circuit_breaker_failures", "Failures in the current circuit breaker generation", "server", "type"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.commands, c.pipelines, c.transactions, c.pipelinedCmds, c.scriptFallbacks, c.errorReplies, c.errors,
		c.poolConnections, c.poolAcquires, c.poolWaits, c.poolWaitSeconds, c.poolCreated, c.poolDestroyed, c.poolErrors,
		c.circuitState, c.circuitRequests, c.circuitFailures,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	stats := c.source.Stats()
	counter(c.commands, stats.Commands)
	counter(c.pipelines, stats.Pipelines)
	counter(c.transactions, stats.Transactions)
	counter(c.pipelinedCmds, stats.PipelinedCmds)
	counter(c.scriptFallbacks, stats.ScriptFallbacks)
	counter(c.errorReplies, stats.ErrorReplies)
	counter(c.errors, stats.Errors)

	for _, sp := range c.source.AllPoolStats() {
		server := sp.Addr
		pool := sp.PoolStats

		gauge(c.poolConnections, float64(pool.TotalConns), server, "total")
		gauge(c.poolConnections, float64(pool.ActiveConns), server, "active")
		gauge(c.poolConnections, float64(pool.IdleConns), server, "idle")
		counter(c.poolAcquires, pool.AcquireCount, server)
		counter(c.poolWaits, pool.AcquireWaitCount, server)
		ch <- prometheus.MustNewConstMetric(c.poolWaitSeconds, prometheus.CounterValue, float64(pool.AcquireWaitTimeNs)/1e9, server)
		counter(c.poolCreated, pool.CreatedConns, server)
		counter(c.poolDestroyed, pool.DestroyedConns, server)
		counter(c.poolErrors, pool.AcquireErrors, server)

		gauge(c.circuitState, float64(sp.CircuitBreakerState), server)
		gauge(c.circuitRequests, float64(sp.CircuitBreakerCounts.Requests), server)
		gauge(c.circuitFailures, float64(sp.CircuitBreakerCounts.TotalFailures), server, "total")
		gauge(c.circuitFailures, float64(sp.CircuitBreakerCounts.ConsecutiveFailures), server, "consecutive")
	}
}
