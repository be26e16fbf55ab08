package capture

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Gate sits between a capture source and the queue. It drops everything
// while recording is off and everything the filter rejects.
type Gate struct {
	queue     *Queue
	recording func() bool
	log       zerolog.Logger

	kept      atomic.Int64
	discarded atomic.Int64
	idle      atomic.Int64
}

// NewGate creates a gate feeding q. recording reports whether capture is on.
func NewGate(q *Queue, recording func() bool, log zerolog.Logger) *Gate {
	return &Gate{queue: q, recording: recording, log: log}
}

// Offer hands ex to the queue if it should be recorded, and reports whether
// it was accepted.
func (g *Gate) Offer(ex Exchange) bool {
	if !g.recording() {
		g.idle.Add(1)
		return false
	}
	if reason := Classify(ex); reason != ReasonNone {
		g.discarded.Add(1)
		g.log.Trace().Str("url", ex.URL).Stringer("reason", reason).Msg("discarded")
		return false
	}
	if err := g.queue.Enqueue(ex); err != nil {
		g.log.Warn().Err(err).Str("url", ex.URL).Msg("enqueue failed")
		return false
	}
	g.kept.Add(1)
	return true
}

// GateStats counts exchanges seen by a gate.
type GateStats struct {
	Kept      int64
	Discarded int64
	Idle      int64
}

// Stats returns the counters so far.
func (g *Gate) Stats() GateStats {
	return GateStats{
		Kept:      g.kept.Load(),
		Discarded: g.discarded.Load(),
		Idle:      g.idle.Load(),
	}
}
