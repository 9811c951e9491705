// Package cli implements the depmap command-line interface.
//
// Commands fall into three groups:
//   - scan: walk an aports checkout and save a snapshot of every recipe
//   - deps, rdeps, path, cycles, stats, analyze, report, visualize, browse:
//     query the graph built from the saved snapshot
//   - serve: expose the same queries over HTTP
//
// Settings come from a TOML file (see [LoadConfig]) and are overridden by
// flags. All commands support --verbose (-v) for debug-level logging via
// charmbracelet/log.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Loaded 14210 packages (312ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
