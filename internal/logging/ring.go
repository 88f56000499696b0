package logging

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultRingSize is the number of entries kept for the logs API.
const DefaultRingSize = 1000

// Entry is a captured log record, shaped for the dashboard JSON API.
type Entry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Ring retains the most recent log entries in a fixed-size circular buffer.
// Writes come from the zap core on every log call; reads come from the logs
// endpoint and the WebSocket stream.
type Ring struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	subs    []chan Entry
}

// NewRing creates a ring holding up to size entries.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{entries: make([]Entry, size)}
}

// Append stores an entry, evicting the oldest when full, and fans it out to
// subscribers. Slow subscribers are skipped rather than blocking the logger.
func (r *Ring) Append(e Entry) {
	r.mu.Lock()
	r.entries[r.next] = e
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
	subs := r.subs
	r.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Recent returns up to limit entries, oldest first. limit <= 0 returns all
// retained entries.
func (r *Ring) Recent(limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ordered []Entry
	if r.full {
		ordered = append(ordered, r.entries[r.next:]...)
		ordered = append(ordered, r.entries[:r.next]...)
	} else {
		ordered = append(ordered, r.entries[:r.next]...)
	}
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}

// Subscribe returns a channel receiving new entries and a cancel func.
func (r *Ring) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 64)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		for i, s := range r.subs {
			if s == ch {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Core adapts the ring into a zapcore.Core so it can be teed with the
// primary output core.
func (r *Ring) Core(enab zapcore.LevelEnabler) zapcore.Core {
	return &ringCore{ring: r, enab: enab}
}

type ringCore struct {
	ring   *Ring
	enab   zapcore.LevelEnabler
	fields []zapcore.Field
}

func (c *ringCore) Enabled(lvl zapcore.Level) bool {
	return c.enab.Enabled(lvl)
}

func (c *ringCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &ringCore{ring: c.ring, enab: c.enab}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *ringCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *ringCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var captured map[string]interface{}
	if len(enc.Fields) > 0 {
		captured = enc.Fields
	}
	c.ring.Append(Entry{
		Timestamp: ent.Time,
		Level:     ent.Level.String(),
		Message:   ent.Message,
		Fields:    captured,
	})
	return nil
}

func (c *ringCore) Sync() error { return nil }
