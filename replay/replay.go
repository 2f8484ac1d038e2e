// Package replay is the append-only logging collaborator: every
// evaluation the engine commits to can be recorded, with its cascade,
// to a YAML stream and/or a SQLite store. The core packages never
// import replay; the shell, bot and autoplay layers own it.
package replay

import (
	"errors"
	"sync"
	"time"

	"github.com/trovebot/trove/bgn"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/search"
)

// A TermRecord is one rationale contribution, in the same {term,value}
// shape the bot serves over the wire.
type TermRecord struct {
	Term  string  `json:"term" yaml:"term"`
	Value float64 `json:"value" yaml:"value"`
}

// A StepRecord summarizes one cascade step of a logged evaluation.
type StepRecord struct {
	Index      int     `json:"index" yaml:"index"`
	Removed    int     `json:"removed" yaml:"removed"`
	Spawned    int     `json:"spawned" yaml:"spawned"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Points     float64 `json:"points" yaml:"points"`
}

// A Record is one logged evaluation: the position it was made from (in
// board gem notation), the chosen move, its score and rationale, the
// cascade summary, and the terminal position.
type Record struct {
	SessionID string       `json:"session_id" yaml:"session_id"`
	Seq       int          `json:"seq" yaml:"seq"`
	When      time.Time    `json:"when" yaml:"when"`
	Board     string       `json:"board" yaml:"board"`
	Move      string       `json:"move" yaml:"move"`
	Score     float64      `json:"score" yaml:"score"`
	Rationale []TermRecord `json:"rationale" yaml:"rationale,flow"`
	Steps     []StepRecord `json:"steps,omitempty" yaml:"steps,omitempty"`
	Final     string       `json:"final" yaml:"final"`
}

// NewRecord builds a Record from the position an evaluation was made
// on and the evaluation itself.
func NewRecord(sessionID string, seq int, before *board.State, ev *search.Evaluation) *Record {
	rec := &Record{
		SessionID: sessionID,
		Seq:       seq,
		When:      time.Now().UTC(),
		Board:     bgn.Emit(before, nil),
		Move:      ev.Move.ShortDescription(),
		Score:     ev.Score,
		Final:     bgn.Emit(ev.Result.Final, nil),
	}
	for _, t := range ev.Rationale {
		rec.Rationale = append(rec.Rationale, TermRecord{Term: t.Name, Value: t.Value})
	}
	for _, s := range ev.Result.Steps {
		rec.Steps = append(rec.Steps, StepRecord{
			Index:      s.Index,
			Removed:    len(s.Removed),
			Spawned:    len(s.Spawns),
			Multiplier: s.Multiplier,
			Points:     s.Points,
		})
	}
	return rec
}

// A Sink accepts records. Appends on one sink are serialized by the
// Logger; Close flushes and releases the sink.
type Sink interface {
	Append(rec *Record) error
	Close() error
}

// A Logger fans records out to its sinks. Safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	sinks []Sink
}

func NewLogger(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks}
}

// Log appends the record to every sink. All sinks are attempted even
// when one fails; failures come back joined.
func (l *Logger) Log(rec *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, s := range l.sinks {
		if err := s.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.sinks = nil
	return errors.Join(errs...)
}
