// Package metrics exports bus, store, agent and loop statistics to
// Prometheus.
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/statecore/internal/agent"
	"github.com/dshills/statecore/internal/attrs"
	"github.com/dshills/statecore/internal/event"
	"github.com/dshills/statecore/internal/loop"
)

// DefaultNamespace is used when New is given an empty namespace.
const DefaultNamespace = "statecore"

// metric is one exported value read from a stats snapshot.
type metric[S any] struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(S) float64
}

func counter[S any](ns, subsystem, name, help string, value func(S) float64) metric[S] {
	return metric[S]{
		desc:      prometheus.NewDesc(prometheus.BuildFQName(ns, subsystem, name), help, []string{"name"}, nil),
		valueType: prometheus.CounterValue,
		value:     value,
	}
}

func gauge[S any](ns, subsystem, name, help string, value func(S) float64) metric[S] {
	m := counter(ns, subsystem, name, help, value)
	m.valueType = prometheus.GaugeValue
	return m
}

// Collector is a prometheus.Collector reading the statistics of registered
// components on every scrape. Registration is safe from any goroutine.
type Collector struct {
	mu     sync.RWMutex
	buses  map[string]*event.Bus
	stores map[string]*attrs.Store
	agents map[string]*agent.Agent
	loops  map[string]*loop.Loop

	busMetrics   []metric[event.Stats]
	storeMetrics []metric[attrs.Stats]
	agentMetrics []metric[agent.Stats]
	loopMetrics  []metric[loop.Stats]
}

// New creates an empty collector with metric names under namespace.
func New(namespace string) *Collector {
	ns := namespace
	if ns == "" {
		ns = DefaultNamespace
	}

	return &Collector{
		buses:  make(map[string]*event.Bus),
		stores: make(map[string]*attrs.Store),
		agents: make(map[string]*agent.Agent),
		loops:  make(map[string]*loop.Loop),

		busMetrics: []metric[event.Stats]{
			counter(ns, "bus", "published_total", "Event names published.",
				func(s event.Stats) float64 { return float64(s.Published) }),
			counter(ns, "bus", "delivered_total", "Handler invocations.",
				func(s event.Stats) float64 { return float64(s.Delivered) }),
			counter(ns, "bus", "handler_successes_total", "Handlers that returned nil.",
				func(s event.Stats) float64 { return float64(s.Succeeded) }),
			counter(ns, "bus", "handler_errors_total", "Handlers that returned an error.",
				func(s event.Stats) float64 { return float64(s.HandlerErrors) }),
			counter(ns, "bus", "handler_panics_total", "Handler panics recovered by isolated buses.",
				func(s event.Stats) float64 { return float64(s.HandlerPanics) }),
			counter(ns, "bus", "handler_seconds_total", "Time spent in handlers.",
				func(s event.Stats) float64 { return s.HandlerTime.Seconds() }),
			gauge(ns, "bus", "subscriptions", "Registered subscriptions.",
				func(s event.Stats) float64 { return float64(s.Subscriptions) }),
		},
		storeMetrics: []metric[attrs.Stats]{
			counter(ns, "store", "sets_total", "Set calls.",
				func(s attrs.Stats) float64 { return float64(s.Sets) }),
			counter(ns, "store", "changes_total", "Attribute changes applied.",
				func(s attrs.Stats) float64 { return float64(s.Changes) }),
			counter(ns, "store", "waves_total", "Change waves published.",
				func(s attrs.Stats) float64 { return float64(s.Waves) }),
			counter(ns, "store", "invalid_total", "Validation failures.",
				func(s attrs.Stats) float64 { return float64(s.Invalid) }),
		},
		agentMetrics: []metric[agent.Stats]{
			counter(ns, "agent", "submitted_total", "Submissions.",
				func(s agent.Stats) float64 { return float64(s.Submitted) }),
			counter(ns, "agent", "coalesced_total", "Submissions replaced before their run.",
				func(s agent.Stats) float64 { return float64(s.Coalesced) }),
			counter(ns, "agent", "executed_total", "Task invocations.",
				func(s agent.Stats) float64 { return float64(s.Executed) }),
			counter(ns, "agent", "skipped_total", "Runs abandoned before invocation.",
				func(s agent.Stats) float64 { return float64(s.Skipped) }),
			counter(ns, "agent", "updated_total", "Committed results.",
				func(s agent.Stats) float64 { return float64(s.Updated) }),
			counter(ns, "agent", "rejected_total", "Reported task failures.",
				func(s agent.Stats) float64 { return float64(s.Rejected) }),
			counter(ns, "agent", "discarded_total", "Superseded outcomes discarded.",
				func(s agent.Stats) float64 { return float64(s.Discarded) }),
		},
		loopMetrics: []metric[loop.Stats]{
			counter(ns, "loop", "posted_total", "Callbacks posted.",
				func(s loop.Stats) float64 { return float64(s.Posted) }),
			counter(ns, "loop", "executed_total", "Callbacks run to completion.",
				func(s loop.Stats) float64 { return float64(s.Executed) }),
			counter(ns, "loop", "panics_total", "Callbacks that panicked.",
				func(s loop.Stats) float64 { return float64(s.Panics) }),
			counter(ns, "loop", "ticks_total", "Non-empty ticks.",
				func(s loop.Stats) float64 { return float64(s.Ticks) }),
			gauge(ns, "loop", "pending", "Queued callbacks.",
				func(s loop.Stats) float64 { return float64(s.Pending) }),
		},
	}
}

// AddBus exports b under name.
func (c *Collector) AddBus(name string, b *event.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buses[name] = b
}

// AddStore exports s and its bus under name.
func (c *Collector) AddStore(name string, s *attrs.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores[name] = s
	c.buses[name] = s.Bus
}

// AddAgent exports a and its bus under name.
func (c *Collector) AddAgent(name string, a *agent.Agent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[name] = a
	c.buses[name] = a.Bus
}

// AddLoop exports l under name.
func (c *Collector) AddLoop(name string, l *loop.Loop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loops[name] = l
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	describe(ch, c.busMetrics)
	describe(ch, c.storeMetrics)
	describe(ch, c.agentMetrics)
	describe(ch, c.loopMetrics)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, name := range sortedKeys(c.buses) {
		collect(ch, c.busMetrics, name, c.buses[name].Stats())
	}
	for _, name := range sortedKeys(c.stores) {
		collect(ch, c.storeMetrics, name, c.stores[name].Stats())
	}
	for _, name := range sortedKeys(c.agents) {
		collect(ch, c.agentMetrics, name, c.agents[name].Stats())
	}
	for _, name := range sortedKeys(c.loops) {
		collect(ch, c.loopMetrics, name, c.loops[name].Stats())
	}
}

func describe[S any](ch chan<- *prometheus.Desc, metrics []metric[S]) {
	for _, m := range metrics {
		ch <- m.desc
	}
}

func collect[S any](ch chan<- prometheus.Metric, metrics []metric[S], name string, stats S) {
	for _, m := range metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(stats), name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ prometheus.Collector = (*Collector)(nil)
