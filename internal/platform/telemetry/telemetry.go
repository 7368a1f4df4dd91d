// Package telemetry keeps in-process metrics for the dashboard: request
// durations per route and the outcome of every upstream call, exposed in
// the Prometheus text format.
package telemetry

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

type histogram struct {
	mu         sync.Mutex
	boundaries []float64
	counts     []int64
	sum        float64
	count      int64
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{boundaries: boundaries, counts: make([]int64, len(boundaries))}
}

func (h *histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.counts[i]++
			break
		}
	}
	h.sum += v
	h.count++
}

// cumulative returns the per-bucket counts the exposition format expects,
// plus the sum and total count.
func (h *histogram) cumulative() ([]int64, float64, int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, len(h.counts))
	var running int64
	for i, c := range h.counts {
		running += c
		out[i] = running
	}
	return out, h.sum, h.count
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

type routeKey struct {
	Method string
	Route  string
	Status string
}

type upstreamKey struct {
	Resource string
	Op       string
	Outcome  string
}

// Provider collects metrics. The zero value is not usable; call
// NewProvider.
type Provider struct {
	mu        sync.RWMutex
	durations map[routeKey]*histogram
	upstream  map[upstreamKey]int64
	active    atomic.Int64
}

func NewProvider() *Provider {
	return &Provider{
		durations: make(map[routeKey]*histogram),
		upstream:  make(map[upstreamKey]int64),
	}
}

// RecordUpstream counts one upstream call outcome.
func (p *Provider) RecordUpstream(resource, op, outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upstream[upstreamKey{resource, op, outcome}]++
}

// UpstreamCount returns how many calls ended with outcome.
func (p *Provider) UpstreamCount(resource, op, outcome string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.upstream[upstreamKey{resource, op, outcome}]
}

// RequestCount returns how many requests matched method, route and status.
func (p *Provider) RequestCount(method, route string, status int) int64 {
	p.mu.RLock()
	h := p.durations[routeKey{method, route, strconv.Itoa(status)}]
	p.mu.RUnlock()
	if h == nil {
		return 0
	}
	_, _, n := h.cumulative()
	return n
}

func (p *Provider) observe(key routeKey, seconds float64) {
	p.mu.RLock()
	h := p.durations[key]
	p.mu.RUnlock()
	if h == nil {
		p.mu.Lock()
		if h = p.durations[key]; h == nil {
			h = newHistogram(defaultDurationBuckets)
			p.durations[key] = h
		}
		p.mu.Unlock()
	}
	h.Observe(seconds)
}

// Middleware records the duration of every request under its route
// pattern.
func (p *Provider) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.active.Add(1)
			defer p.active.Add(-1)
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			p.observe(routeKey{
				Method: c.Request().Method,
				Route:  route,
				Status: strconv.Itoa(c.Response().Status),
			}, time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the metrics in Prometheus text exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		p.mu.RLock()
		routes := make([]routeKey, 0, len(p.durations))
		for k := range p.durations {
			routes = append(routes, k)
		}
		hists := make(map[routeKey]*histogram, len(p.durations))
		for k, h := range p.durations {
			hists[k] = h
		}
		calls := make([]upstreamKey, 0, len(p.upstream))
		counts := make(map[upstreamKey]int64, len(p.upstream))
		for k, v := range p.upstream {
			calls = append(calls, k)
			counts[k] = v
		}
		p.mu.RUnlock()

		sort.Slice(routes, func(i, j int) bool {
			return routes[i].Route+routes[i].Method+routes[i].Status < routes[j].Route+routes[j].Method+routes[j].Status
		})
		sort.Slice(calls, func(i, j int) bool {
			return calls[i].Resource+calls[i].Op+calls[i].Outcome < calls[j].Resource+calls[j].Op+calls[j].Outcome
		})

		b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
		b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
		for _, k := range routes {
			labels := fmt.Sprintf("method=%q,route=%q,status=%q", k.Method, k.Route, k.Status)
			buckets, sum, count := hists[k].cumulative()
			for i, bound := range defaultDurationBuckets {
				fmt.Fprintf(&b, "http_server_request_duration_seconds_bucket{%s,le=\"%g\"} %d\n", labels, bound, buckets[i])
			}
			fmt.Fprintf(&b, "http_server_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", labels, count)
			fmt.Fprintf(&b, "http_server_request_duration_seconds_sum{%s} %g\n", labels, sum)
			fmt.Fprintf(&b, "http_server_request_duration_seconds_count{%s} %d\n", labels, count)
		}
		b.WriteByte('\n')

		b.WriteString("# HELP http_server_active_requests Number of active HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", p.active.Load())

		b.WriteString("# HELP upstream_calls_total Upstream calls by resource, operation and outcome.\n")
		b.WriteString("# TYPE upstream_calls_total counter\n")
		for _, k := range calls {
			fmt.Fprintf(&b, "upstream_calls_total{resource=%q,op=%q,outcome=%q} %d\n", k.Resource, k.Op, k.Outcome, counts[k])
		}

		return c.String(http.StatusOK, b.String())
	}
}
