package mockserver

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/getmockd/sidepost/pkg/logging"
)

// Observer receives a callback for every mock server operation.
type Observer interface {
	// OnSave is called after a successful POST or PATCH with every
	// record-level change it made, sideposted records included.
	OnSave(resource, itemID string, changes []Change, duration time.Duration)

	// OnRead is called after a successful GET of one record.
	OnRead(resource, itemID string, duration time.Duration)

	// OnList is called after a successful collection GET.
	OnList(resource string, count int, duration time.Duration)

	// OnDelete is called after a successful DELETE.
	OnDelete(resource, itemID string, duration time.Duration)

	// OnError is called when an operation fails.
	OnError(resource, operation string, err error)

	// OnReset is called after the store is reset.
	OnReset(resources []string, duration time.Duration)
}

// NoopObserver ignores every callback.
type NoopObserver struct{}

func (NoopObserver) OnSave(string, string, []Change, time.Duration) {}
func (NoopObserver) OnRead(string, string, time.Duration)           {}
func (NoopObserver) OnList(string, int, time.Duration)              {}
func (NoopObserver) OnDelete(string, string, time.Duration)         {}
func (NoopObserver) OnError(string, string, error)                  {}
func (NoopObserver) OnReset([]string, time.Duration)                {}

// LoggingObserver writes one structured log line per operation.
type LoggingObserver struct {
	log *slog.Logger
}

// NewLoggingObserver returns an observer logging to logger.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	return &LoggingObserver{log: logging.Component(logger, "mockserver")}
}

func (o *LoggingObserver) OnSave(resource, itemID string, changes []Change, duration time.Duration) {
	r := &Result{Changes: changes}
	o.log.Info("saved",
		"type", resource,
		"id", itemID,
		"created", r.Count(OpCreate),
		"updated", r.Count(OpUpdate),
		"destroyed", r.Count(OpDestroy),
		"disassociated", r.Count(OpDisassociate),
		"rejected", r.Count(OpReject),
		"duration", duration)
	for _, c := range changes {
		o.log.Debug("change", "op", string(c.Op), "type", c.Type, "id", c.ID)
	}
}

func (o *LoggingObserver) OnRead(resource, itemID string, duration time.Duration) {
	o.log.Debug("read", "type", resource, "id", itemID, "duration", duration)
}

func (o *LoggingObserver) OnList(resource string, count int, duration time.Duration) {
	o.log.Debug("list", "type", resource, "count", count, "duration", duration)
}

func (o *LoggingObserver) OnDelete(resource, itemID string, duration time.Duration) {
	o.log.Info("deleted", "type", resource, "id", itemID, "duration", duration)
}

func (o *LoggingObserver) OnError(resource, operation string, err error) {
	o.log.Warn("request failed", "type", resource, "operation", operation, "error", err)
}

func (o *LoggingObserver) OnReset(resources []string, duration time.Duration) {
	o.log.Info("store reset", "types", resources, "duration", duration)
}

// MetricsObserver counts operations and record-level changes. It is safe
// for concurrent use.
type MetricsObserver struct {
	saveCount     atomic.Int64
	readCount     atomic.Int64
	listCount     atomic.Int64
	deleteCount   atomic.Int64
	errorCount    atomic.Int64
	resetCount    atomic.Int64
	created       atomic.Int64
	updated       atomic.Int64
	destroyed     atomic.Int64
	disassociated atomic.Int64
	rejected      atomic.Int64
}

// NewMetricsObserver creates a metrics observer.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) OnSave(_, _ string, changes []Change, _ time.Duration) {
	m.saveCount.Add(1)
	for _, c := range changes {
		switch c.Op {
		case OpCreate:
			m.created.Add(1)
		case OpUpdate:
			m.updated.Add(1)
		case OpDestroy:
			m.destroyed.Add(1)
		case OpDisassociate:
			m.disassociated.Add(1)
		case OpReject:
			m.rejected.Add(1)
		}
	}
}

func (m *MetricsObserver) OnRead(string, string, time.Duration)   { m.readCount.Add(1) }
func (m *MetricsObserver) OnList(string, int, time.Duration)      { m.listCount.Add(1) }
func (m *MetricsObserver) OnDelete(string, string, time.Duration) { m.deleteCount.Add(1) }
func (m *MetricsObserver) OnError(string, string, error)          { m.errorCount.Add(1) }
func (m *MetricsObserver) OnReset([]string, time.Duration)        { m.resetCount.Add(1) }

// Snapshot returns the current counters.
func (m *MetricsObserver) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SaveCount:     m.saveCount.Load(),
		ReadCount:     m.readCount.Load(),
		ListCount:     m.listCount.Load(),
		DeleteCount:   m.deleteCount.Load(),
		ErrorCount:    m.errorCount.Load(),
		ResetCount:    m.resetCount.Load(),
		Created:       m.created.Load(),
		Updated:       m.updated.Load(),
		Destroyed:     m.destroyed.Load(),
		Disassociated: m.disassociated.Load(),
		Rejected:      m.rejected.Load(),
	}
}

// MetricsSnapshot is a point-in-time copy of MetricsObserver counters.
type MetricsSnapshot struct {
	SaveCount     int64 `json:"saveCount"`
	ReadCount     int64 `json:"readCount"`
	ListCount     int64 `json:"listCount"`
	DeleteCount   int64 `json:"deleteCount"`
	ErrorCount    int64 `json:"errorCount"`
	ResetCount    int64 `json:"resetCount"`
	Created       int64 `json:"created"`
	Updated       int64 `json:"updated"`
	Destroyed     int64 `json:"destroyed"`
	Disassociated int64 `json:"disassociated"`
	Rejected      int64 `json:"rejected"`
}

// Observers fans callbacks out to several observers.
type Observers []Observer

func (os Observers) OnSave(resource, itemID string, changes []Change, d time.Duration) {
	for _, o := range os {
		o.OnSave(resource, itemID, changes, d)
	}
}

func (os Observers) OnRead(resource, itemID string, d time.Duration) {
	for _, o := range os {
		o.OnRead(resource, itemID, d)
	}
}

func (os Observers) OnList(resource string, count int, d time.Duration) {
	for _, o := range os {
		o.OnList(resource, count, d)
	}
}

func (os Observers) OnDelete(resource, itemID string, d time.Duration) {
	for _, o := range os {
		o.OnDelete(resource, itemID, d)
	}
}

func (os Observers) OnError(resource, operation string, err error) {
	for _, o := range os {
		o.OnError(resource, operation, err)
	}
}

func (os Observers) OnReset(resources []string, d time.Duration) {
	for _, o := range os {
		o.OnReset(resources, d)
	}
}
