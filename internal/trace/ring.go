package trace

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"
)

// RingTracer keeps the last N events in memory (circular buffer). The CLI
// reports it at exit: a per-span summary always, the raw events when the
// command failed.
type RingTracer struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
	level    Level
}

// NewRingTracer creates a new RingTracer with specified capacity.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}

	return &RingTracer{
		events:   make([]Event, capacity),
		capacity: capacity,
		level:    level,
	}
}

// Emit adds an event to the ring buffer.
func (t *RingTracer) Emit(ev *Event) {
	if !t.level.Accepts(ev) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	t.events[t.head] = stored
	t.head = (t.head + 1) % t.capacity

	if t.head == 0 {
		t.full = true
	}
}

// Snapshot returns a copy of all stored events in chronological order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.full {
		result := make([]Event, t.head)
		copy(result, t.events[:t.head])
		return result
	}

	result := make([]Event, t.capacity)
	copy(result, t.events[t.head:])
	copy(result[t.capacity-t.head:], t.events[:t.head])
	return result
}

// Dump writes all events to the provided writer in the specified format.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

// Failures returns the span end events in the ring that ended in an error.
func (t *RingTracer) Failures() []Event {
	var out []Event
	for _, ev := range t.Snapshot() {
		if ev.Failed() {
			out = append(out, ev)
		}
	}
	return out
}

// SpanStat aggregates the ended spans sharing one scope and name.
type SpanStat struct {
	Scope  Scope
	Name   string
	Count  int
	Errors int
	Total  time.Duration
	Max    time.Duration
}

// Stats groups the span end events in the ring by scope and name, slowest
// total first.
func (t *RingTracer) Stats() []SpanStat {
	type key struct {
		scope Scope
		name  string
	}
	index := make(map[key]int)
	var stats []SpanStat
	for _, ev := range t.Snapshot() {
		if ev.Kind != KindSpanEnd {
			continue
		}
		k := key{ev.Scope, ev.Name}
		i, ok := index[k]
		if !ok {
			i = len(stats)
			index[k] = i
			stats = append(stats, SpanStat{Scope: ev.Scope, Name: ev.Name})
		}
		st := &stats[i]
		st.Count++
		st.Total += ev.Dur
		st.Max = max(st.Max, ev.Dur)
		if ev.Failed() {
			st.Errors++
		}
	}
	slices.SortStableFunc(stats, func(a, b SpanStat) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return stats
}

// WriteStats renders Stats as an aligned table.
func (t *RingTracer) WriteStats(w io.Writer) error {
	stats := t.Stats()
	if len(stats) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "span\tcount\terrors\ttotal\tmax")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s:%s\t%d\t%d\t%s\t%s\n", st.Scope, st.Name, st.Count, st.Errors,
			st.Total.Round(time.Microsecond), st.Max.Round(time.Microsecond))
	}
	return tw.Flush()
}

// Flush is a no-op for RingTracer since everything is in memory.
func (t *RingTracer) Flush() error {
	return nil
}

// Close is a no-op for RingTracer.
func (t *RingTracer) Close() error {
	return nil
}

// Level returns the current tracing level.
func (t *RingTracer) Level() Level {
	return t.level
}

// Enabled returns true if tracing is active.
func (t *RingTracer) Enabled() bool {
	return t.level > LevelOff
}
