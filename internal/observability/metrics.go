package observability

import (
	"strconv"
	"sync"
	"time"
)

// Commit outcomes recorded by RecordCommit.
const (
	CommitCommitted = "committed"
	CommitRejected  = "rejected"
	CommitFailed    = "failed"
	CommitSkipped   = "skipped"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	requestMillis  map[string]int64
	errorCount     map[string]int64
	commitCount    map[string]int64
	rejectionCount map[string]int64
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Requests      map[string]int64 `json:"requests"`
	RequestMillis map[string]int64 `json:"request_millis"`
	Errors        map[string]int64 `json:"errors"`
	Commits       map[string]int64 `json:"commits"`
	Rejections    map[string]int64 `json:"rejections"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		requestMillis:  make(map[string]int64),
		errorCount:     make(map[string]int64),
		commitCount:    make(map[string]int64),
		rejectionCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordCommit counts one unit of work save by outcome.
func (m *Metrics) RecordCommit(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitCount[outcome]++
}

// RecordRejection counts a validator veto by error code.
func (m *Metrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectionCount[code]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:      copyCounts(m.requestCount),
		RequestMillis: copyCounts(m.requestMillis),
		Errors:        copyCounts(m.errorCount),
		Commits:       copyCounts(m.commitCount),
		Rejections:    copyCounts(m.rejectionCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
