// Package logging writes one JSON object per line with a ts and level field.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New returns a Logger writing to w. Timestamps are rendered in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

// Location is the zone timestamps are rendered in.
func (l *Logger) Location() *time.Location { return l.loc }

// Log writes fields with ts and level added. fields is modified.
func (l *Logger) Log(level string, fields map[string]any) {
	fields["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	fields["level"] = level

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(fields)
}

func (l *Logger) Info(event string, fields map[string]any) {
	l.Log("info", withEvent(event, fields))
}

func (l *Logger) Warn(event string, fields map[string]any) {
	l.Log("warn", withEvent(event, fields))
}

func (l *Logger) Error(event string, fields map[string]any) {
	l.Log("error", withEvent(event, fields))
}

func withEvent(event string, fields map[string]any) map[string]any {
	if fields == nil {
		fields = make(map[string]any, 3)
	}
	fields["event"] = event
	return fields
}
