package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogCapacity = 1000
	defaultLogPage     = 1
	defaultLogPageSize = 20
	maxLogPageSize     = 200
)

type SystemLogEntry struct {
	ID        int64                  `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogQuery filters the in-memory log ring. Zero values match everything.
type LogQuery struct {
	Level    string
	From     time.Time
	To       time.Time
	Keyword  string
	Page     int
	PageSize int
}

// SystemLogStore keeps the most recent log entries in a fixed-size ring so
// admins can inspect them without shell access to the host.
type SystemLogStore struct {
	mu       sync.RWMutex
	entries  []SystemLogEntry
	capacity int
	next     int
	count    int
	seq      int64
}

func NewSystemLogStore(capacity int) *SystemLogStore {
	if capacity <= 0 {
		capacity = defaultLogCapacity
	}

	return &SystemLogStore{
		entries:  make([]SystemLogEntry, capacity),
		capacity: capacity,
	}
}

// WrapZapLogger tees every entry the logger writes into the store.
func WrapZapLogger(base *zap.Logger, store *SystemLogStore) *zap.Logger {
	if base == nil || store == nil {
		return base
	}

	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &systemLogCore{
			Core:  core,
			store: store,
		}
	}))
}

func (s *SystemLogStore) Query(q LogQuery) ([]SystemLogEntry, int64) {
	if s == nil {
		return nil, 0
	}

	page, pageSize := normalizeLogPagination(q.Page, q.PageSize)
	level := strings.ToLower(strings.TrimSpace(q.Level))
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))

	entries := s.snapshotNewestFirst()
	filtered := make([]SystemLogEntry, 0, len(entries))
	for _, entry := range entries {
		if level != "" && !strings.EqualFold(entry.Level, level) {
			continue
		}
		if !q.From.IsZero() && entry.Timestamp.Before(q.From.UTC()) {
			continue
		}
		if !q.To.IsZero() && entry.Timestamp.After(q.To.UTC()) {
			continue
		}
		if keyword != "" && !entryContainsKeyword(entry, keyword) {
			continue
		}
		filtered = append(filtered, entry)
	}

	total := int64(len(filtered))
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []SystemLogEntry{}, total
	}

	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total
}

func (s *SystemLogStore) add(entry zapcore.Entry, fields []zapcore.Field) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	item := SystemLogEntry{
		ID:        s.seq,
		Timestamp: entry.Time.UTC(),
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Caller:    entry.Caller.TrimmedPath(),
		Fields:    fieldsToMap(fields),
	}

	s.entries[s.next] = item
	s.next = (s.next + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
}

func (s *SystemLogStore) snapshotNewestFirst() []SystemLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.count == 0 {
		return nil
	}

	result := make([]SystemLogEntry, 0, s.count)
	for i := 0; i < s.count; i++ {
		idx := s.next - 1 - i
		if idx < 0 {
			idx += s.capacity
		}
		result = append(result, cloneEntry(s.entries[idx]))
	}
	return result
}

func cloneEntry(entry SystemLogEntry) SystemLogEntry {
	cloned := entry
	if len(entry.Fields) == 0 {
		return cloned
	}

	fields := make(map[string]interface{}, len(entry.Fields))
	for k, v := range entry.Fields {
		fields[k] = v
	}
	cloned.Fields = fields
	return cloned
}

func entryContainsKeyword(entry SystemLogEntry, keyword string) bool {
	if strings.Contains(strings.ToLower(entry.Message), keyword) {
		return true
	}
	if strings.Contains(strings.ToLower(entry.Caller), keyword) {
		return true
	}
	if len(entry.Fields) > 0 && strings.Contains(strings.ToLower(fmt.Sprintf("%v", entry.Fields)), keyword) {
		return true
	}
	return false
}

func fieldsToMap(fields []zapcore.Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	if len(enc.Fields) == 0 {
		return nil
	}

	result := make(map[string]interface{}, len(enc.Fields))
	for k, v := range enc.Fields {
		result[k] = v
	}
	return result
}

func normalizeLogPagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = defaultLogPage
	}
	if pageSize <= 0 {
		pageSize = defaultLogPageSize
	}
	if pageSize > maxLogPageSize {
		pageSize = maxLogPageSize
	}
	return page, pageSize
}

type systemLogCore struct {
	zapcore.Core
	store *SystemLogStore
}

func (c *systemLogCore) With(fields []zapcore.Field) zapcore.Core {
	return &systemLogCore{
		Core:  c.Core.With(fields),
		store: c.store,
	}
}

func (c *systemLogCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Core.Check(entry, nil) == nil {
		return checked
	}
	return checked.AddCore(entry, c)
}

func (c *systemLogCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.store != nil {
		c.store.add(entry, fields)
	}
	return c.Core.Write(entry, fields)
}
