// Package audit carries the record of every block transition made by the
// boom log machinery.
package audit

import "sync"

const (
	ActionDetonate = "DETONATE"
	ActionStrip    = "STRIP"
	ActionRegrow   = "REGROW"
)

type Entry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

type Sink interface {
	WriteAudit(Entry) error
}

// Fanout forwards every entry to all sinks and returns the first error.
type Fanout []Sink

func (f Fanout) WriteAudit(e Entry) error {
	var first error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.WriteAudit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Recorder keeps entries in memory. Used by hosts that inspect a sweep
// after the fact, and by tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) WriteAudit(e Entry) error {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Stamped fills in Tick from the host clock before forwarding.
type Stamped struct {
	Sink Sink
	Tick func() uint64
}

func (s Stamped) WriteAudit(e Entry) error {
	if s.Sink == nil {
		return nil
	}
	if s.Tick != nil && e.Tick == 0 {
		e.Tick = s.Tick()
	}
	return s.Sink.WriteAudit(e)
}
