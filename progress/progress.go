// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package progress reports how many tables of a dump are done.
package progress

import (
	"time"

	"github.com/rs/zerolog"
)

// Reporter receives the number of tables once, then one Advance per finished table
type Reporter interface {
	Total(n int)
	Advance()
}

// Noop discards every event
type Noop struct{}

func (Noop) Total(int) {}
func (Noop) Advance()  {}

// Logger writes one log line per finished table
type Logger struct {
	logger zerolog.Logger
	total  int
	done   int
	start  time.Time
	now    func() time.Time
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger, now: time.Now}
}

func (l *Logger) Total(n int) {
	l.total = n
	l.done = 0
	l.start = l.now()
	l.logger.Info().Int("tables", n).Msg("dump started")
}

func (l *Logger) Advance() {
	l.done++
	event := l.logger.Info().Int("done", l.done).Int("total", l.total).Dur("elapsed", l.now().Sub(l.start))
	if l.total > 0 {
		event = event.Int("percent", l.done*100/l.total)
	}
	event.Msg("table done")
}

// Done reports how many tables have been advanced since Total
func (l *Logger) Done() int {
	return l.done
}
