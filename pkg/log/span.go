// Package log holds logrus hooks.
package log

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SpanHook records log entries as events on the span carried by the entry's context.
// Entries without a context, or whose span is not recording, are ignored.
type SpanHook struct {
	levels []log.Level
}

// NewSpanHook fires for min and every more severe level.
func NewSpanHook(min log.Level) *SpanHook {
	h := &SpanHook{}
	for _, l := range log.AllLevels {
		if l <= min {
			h.levels = append(h.levels, l)
		}
	}
	return h
}

// Levels the levels for which the hook should fire
func (h *SpanHook) Levels() []log.Level {
	return h.levels
}

// Fire adds the entry to the active span.
func (h *SpanHook) Fire(entry *log.Entry) error {
	if entry.Context == nil {
		return nil
	}
	span := trace.SpanFromContext(entry.Context)
	if !span.IsRecording() {
		return nil
	}
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]attribute.KeyValue, 0, len(keys)+1)
	attrs = append(attrs, attribute.String("level", entry.Level.String()))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, fmt.Sprint(entry.Data[k])))
	}
	span.AddEvent(entry.Message, trace.WithAttributes(attrs...), trace.WithTimestamp(entry.Time))
	return nil
}
