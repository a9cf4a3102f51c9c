// Package audit keeps a bounded, newest-first trail of record mutations.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/domain/models"
	"github.com/mamadbah2/sitestock/internal/export"
)

// DefaultCapacity bounds the trail when no capacity is configured.
const DefaultCapacity = 1000

var exportHeaders = []string{"ID", "Action", "Entity Type", "Entity ID", "User", "Timestamp", "Description"}

// Sink receives a copy of every entry, e.g. for durable storage.
type Sink interface {
	SaveAuditLog(ctx context.Context, entry models.AuditLog) error
}

// Log is an in-memory audit trail with a fixed capacity.
type Log struct {
	mu       sync.RWMutex
	entries  []models.AuditLog
	capacity int
	sink     Sink
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithSink forwards every entry to the sink. Sink failures are logged, never returned.
func WithSink(sink Sink) Option {
	return func(l *Log) { l.sink = sink }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New builds a Log holding at most capacity entries.
func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		capacity: capacity,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record stamps the entry with an id and timestamp and prepends it.
func (l *Log) Record(ctx context.Context, entry models.AuditLog) models.AuditLog {
	entry.ID = "LOG_" + uuid.NewString()
	entry.Timestamp = l.now().UTC()

	l.mu.Lock()
	l.entries = append([]models.AuditLog{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.mu.Unlock()

	l.logger.Info("audit entry recorded",
		zap.String("action", string(entry.Action)),
		zap.String("entity_type", string(entry.EntityType)),
		zap.String("entity_id", entry.EntityID),
		zap.String("user", entry.UserName))

	if l.sink != nil {
		if err := l.sink.SaveAuditLog(ctx, entry); err != nil {
			l.logger.Warn("failed to persist audit entry", zap.String("id", entry.ID), zap.Error(err))
		}
	}

	return entry
}

// Entries returns a copy of the trail, newest first.
func (l *Log) Entries() []models.AuditLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AuditLog, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForEntity returns the entries about one record, newest first.
func (l *Log) ForEntity(entityType models.EntityType, entityID string) []models.AuditLog {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AuditLog, 0)
	for _, e := range l.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// Export renders the trail as a CSV document.
func (l *Log) Export() (string, error) {
	entries := l.Entries()
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID,
			string(e.Action),
			string(e.EntityType),
			e.EntityID,
			e.UserName,
			e.Timestamp,
			e.Description,
		})
	}
	return export.Document(exportHeaders, rows)
}
