// Package rlog is the structured-logging and error-kind layer shared by
// every pass. It keeps the shape of reposurgeon's Control/baton/croak
// trio (a small context object threaded everywhere, a twirling progress
// indicator, a fatal-message helper) but — per spec.md §9's explicit
// call to replace print-based progress logging — backs it with
// logrus structured records instead of writes straight to a file handle.
package rlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// EventKind names the structured event records the pass manager and
// components emit (spec.md §9).
type EventKind string

const (
	PassStart    EventKind = "pass_start"
	PassComplete EventKind = "pass_complete"
	FileProcessed EventKind = "file_processed"
	Warning      EventKind = "warning"
	Error        EventKind = "error"
)

// Logger wraps a logrus.Logger with the event vocabulary above and a
// baton-style progress counter for long scans. One Logger is created
// per run and threaded through every component via RunContext.
type Logger struct {
	entry *logrus.Logger

	mu           sync.Mutex
	batonLabel   string
	batonCount   int64
	batonStarted time.Time

	warningCount map[string]int
	firstWarn    map[string][]string
	maxFirstWarn int
}

// New returns a Logger writing to w. format is "text" or "json"; the
// CLI layer picks "json" for non-interactive batch runs, matching how
// gitp4transfer's main.go configures logrus.
func New(w io.Writer, format string) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &Logger{
		entry:        l,
		warningCount: make(map[string]int),
		firstWarn:    make(map[string][]string),
		maxFirstWarn: 10,
	}
}

// Default returns a Logger writing text-formatted records to stderr.
func Default() *Logger {
	return New(os.Stderr, "text")
}

// StartPass logs a pass_start event.
func (l *Logger) StartPass(name string) {
	l.entry.WithField("event", PassStart).WithField("pass", name).Info("starting pass")
}

// CompletePass logs a pass_complete event with elapsed duration.
func (l *Logger) CompletePass(name string, elapsed time.Duration) {
	l.entry.WithField("event", PassComplete).WithField("pass", name).
		WithField("elapsed", elapsed.String()).Info("pass complete")
}

// FileProcessed logs one file_processed event; called at most at
// INFO-sample granularity in practice since C5 may process millions of
// files — callers are expected to throttle via Baton instead for the
// common case.
func (l *Logger) FileProcessed(path string) {
	l.entry.WithField("event", FileProcessed).WithField("path", path).Debug("file processed")
}

// Warn records a structured warning, bucketed by kind so the pass
// manager can report "first ten warnings of each kind, and total
// counts" per spec.md §7.
func (l *Logger) Warn(kind string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	l.warningCount[kind]++
	if len(l.firstWarn[kind]) < l.maxFirstWarn {
		l.firstWarn[kind] = append(l.firstWarn[kind], msg)
	}
	l.mu.Unlock()
	l.entry.WithField("event", Warning).WithField("kind", kind).Warn(msg)
}

// WarningSummary returns, for each warning kind seen, its total count
// and up to ten representative messages.
func (l *Logger) WarningSummary() map[string]struct {
	Count    int
	Examples []string
} {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]struct {
		Count    int
		Examples []string
	}, len(l.warningCount))
	for kind, n := range l.warningCount {
		out[kind] = struct {
			Count    int
			Examples []string
		}{Count: n, Examples: append([]string(nil), l.firstWarn[kind]...)}
	}
	return out
}

// Croak reports a fatal-class message and returns a wrapped error,
// mirroring reposurgeon's croak() but returning control to the caller
// instead of os.Exit — the pass manager decides exit codes (spec.md §6).
func (l *Logger) Croak(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	l.entry.WithField("event", Error).Error(msg)
	return errors.New(msg)
}

// Baton begins a labeled progress indicator for a long scan (e.g. C5's
// tree walk). Call Tick per unit of work and Done when finished —
// analogous to reposurgeon's Baton.Twirl/End (cutter/repocutter.go)
// but emitting periodic structured log lines instead of terminal
// control sequences, since batch runs usually aren't attached to a tty.
func (l *Logger) Baton(label string) {
	l.mu.Lock()
	l.batonLabel = label
	l.batonCount = 0
	l.batonStarted = time.Now()
	l.mu.Unlock()
	l.entry.WithField("event", "baton_start").Info(label)
}

// Tick advances the current baton by one unit, logging every 1000th tick.
func (l *Logger) Tick() {
	l.mu.Lock()
	l.batonCount++
	count := l.batonCount
	label := l.batonLabel
	l.mu.Unlock()
	if count%1000 == 0 {
		l.entry.WithField("event", "baton_tick").WithField("count", count).Info(label)
	}
}

// Done closes out the current baton with an elapsed-time summary.
func (l *Logger) Done(msg string) {
	l.mu.Lock()
	elapsed := time.Since(l.batonStarted)
	label := l.batonLabel
	count := l.batonCount
	l.mu.Unlock()
	l.entry.WithField("event", "baton_end").
		WithField("elapsed", elapsed.String()).
		WithField("count", count).Info(label + ": " + msg)
}

// SetLevel adjusts verbosity; the CLI's --verbose flag maps here.
func (l *Logger) SetLevel(level logrus.Level) {
	l.entry.SetLevel(level)
}
