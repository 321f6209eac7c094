// Package telemetry records tool-call and HTTP transport metrics and serves
// them in the Prometheus text exposition format.
package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// histogram keeps non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&h.sum, old, next) {
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 { return atomic.LoadInt64(&h.count) }

func (h *histogram) Sum() float64 { return math.Float64frombits(atomic.LoadUint64(&h.sum)) }

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.bucketCounts))
	var running int64
	for i, c := range h.bucketCounts {
		running += c
		cum[i] = running
	}
	return cum
}

// ---------------------------------------------------------------------------
// Labeled stores
// ---------------------------------------------------------------------------

type histogramVec struct {
	mu    sync.RWMutex
	items map[string]*histogram
}

func (s *histogramVec) get(key string) *histogram {
	s.mu.RLock()
	h, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.items[key]; !ok {
		h = newHistogram(defaultDurationBuckets)
		s.items[key] = h
	}
	return h
}

type counterVec struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func (s *counterVec) inc(key string) {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		if p, ok = s.items[key]; !ok {
			p = new(int64)
			s.items[key] = p
		}
		s.mu.Unlock()
	}
	atomic.AddInt64(p, 1)
}

func (s *counterVec) get(key string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.items[key]; ok {
		return atomic.LoadInt64(p)
	}
	return 0
}

// labelKey joins label values; values never contain the separator.
func labelKey(values ...string) string { return strings.Join(values, "|") }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

type gaugeFunc struct {
	name, help string
	fn         func() float64
}

// Metrics is the process-wide metrics registry. The zero value is not
// usable; call NewMetrics.
type Metrics struct {
	toolCalls    *counterVec   // tool|outcome
	toolDuration *histogramVec // tool
	httpDuration *histogramVec // method|route|status
	httpActive   int64

	gaugeMu sync.RWMutex
	gauges  []gaugeFunc
}

func NewMetrics() *Metrics {
	return &Metrics{
		toolCalls:    &counterVec{items: make(map[string]*int64)},
		toolDuration: &histogramVec{items: make(map[string]*histogram)},
		httpDuration: &histogramVec{items: make(map[string]*histogram)},
	}
}

// ObserveToolCall counts one tool call and records its latency.
func (m *Metrics) ObserveToolCall(tool, outcome string, d time.Duration) {
	m.toolCalls.inc(labelKey(tool, outcome))
	m.toolDuration.get(tool).Observe(d.Seconds())
}

// ToolCalls returns the number of calls seen for tool with outcome.
func (m *Metrics) ToolCalls(tool, outcome string) int64 {
	return m.toolCalls.get(labelKey(tool, outcome))
}

// RegisterGauge adds a gauge sampled from fn at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	m.gaugeMu.Lock()
	defer m.gaugeMu.Unlock()
	m.gauges = append(m.gauges, gaugeFunc{name: name, help: help, fn: fn})
}

// Middleware records request duration by method, route and status, and the
// number of in-flight requests.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&m.httpActive, 1)
			start := time.Now()

			err := next(c)

			atomic.AddInt64(&m.httpActive, -1)
			route := c.Path()
			if route == "" {
				route = c.Request().URL.Path
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			key := labelKey(c.Request().Method, route, strconv.Itoa(status))
			m.httpDuration.get(key).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves every metric in Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		writeHeader(&b, "mcp_tool_calls_total", "Tool calls by tool and outcome.", "counter")
		m.toolCalls.mu.RLock()
		for _, key := range sortedKeys(m.toolCalls.items) {
			parts := strings.SplitN(key, "|", 2)
			fmt.Fprintf(&b, "mcp_tool_calls_total{tool=%q,outcome=%q} %d\n",
				parts[0], parts[1], atomic.LoadInt64(m.toolCalls.items[key]))
		}
		m.toolCalls.mu.RUnlock()
		b.WriteByte('\n')

		writeHeader(&b, "mcp_tool_call_duration_seconds", "Tool call latency in seconds.", "histogram")
		m.toolDuration.mu.RLock()
		for _, key := range sortedKeys(m.toolDuration.items) {
			writeHistogram(&b, "mcp_tool_call_duration_seconds", fmt.Sprintf("tool=%q", key), m.toolDuration.items[key])
		}
		m.toolDuration.mu.RUnlock()
		b.WriteByte('\n')

		writeHeader(&b, "http_server_request_duration_seconds", "Duration of HTTP requests in seconds.", "histogram")
		m.httpDuration.mu.RLock()
		for _, key := range sortedKeys(m.httpDuration.items) {
			parts := strings.SplitN(key, "|", 3)
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
			writeHistogram(&b, "http_server_request_duration_seconds", labels, m.httpDuration.items[key])
		}
		m.httpDuration.mu.RUnlock()
		b.WriteByte('\n')

		writeHeader(&b, "http_server_active_requests", "Number of in-flight HTTP requests.", "gauge")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", atomic.LoadInt64(&m.httpActive))

		m.gaugeMu.RLock()
		for _, g := range m.gauges {
			writeHeader(&b, g.name, g.help, "gauge")
			fmt.Fprintf(&b, "%s %g\n\n", g.name, g.fn())
		}
		m.gaugeMu.RUnlock()

		return c.String(http.StatusOK, b.String())
	}
}

func writeHeader(b *strings.Builder, name, help, typ string) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, typ)
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}
