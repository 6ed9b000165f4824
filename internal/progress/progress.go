// Package progress draws a single-line byte counter while installers are
// downloaded and hashed. Nothing is drawn unless the output is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests override it.
var IsTerminalFunc = term.IsTerminal

const (
	lineWidth     = 80
	barWidth      = 24
	printInterval = 100 * time.Millisecond
)

// Writer counts bytes written through it and redraws a progress line on
// output. It does not forward the bytes; pair it with io.MultiWriter or
// io.TeeReader.
type Writer struct {
	mu        sync.Mutex
	output    io.Writer
	label     string
	total     int64
	written   int64
	start     time.Time
	lastPrint time.Time
	now       func() time.Time
}

// NewWriter creates a counter for a transfer of total bytes. A total of
// zero or less draws only the byte count and speed.
func NewWriter(output io.Writer, label string, total int64) *Writer {
	return &Writer{
		output: output,
		label:  label,
		total:  total,
		start:  time.Now(),
		now:    time.Now,
	}
}

// Write records len(p) bytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.written += int64(len(p))
	now := w.now()
	if now.Sub(w.lastPrint) >= printInterval {
		w.lastPrint = now
		fmt.Fprint(w.output, "\r"+pad(w.line(now)))
	}
	return len(p), nil
}

// Written returns the bytes counted so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Finish clears the progress line.
func (w *Writer) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.output, "\r%s\r", strings.Repeat(" ", lineWidth))
}

func (w *Writer) line(now time.Time) string {
	elapsed := now.Sub(w.start).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(w.written) / elapsed
	}
	rate := humanize.Bytes(uint64(speed)) + "/s"

	if w.total <= 0 {
		return fmt.Sprintf("   %s %s (%s)", w.label, humanize.Bytes(uint64(w.written)), rate)
	}

	percent := float64(w.written) / float64(w.total) * 100
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", filled)
	if filled < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-filled-1)
	}

	eta := "--:--"
	if speed > 0 {
		eta = formatDuration(float64(w.total-w.written) / speed)
	}
	return fmt.Sprintf("   %s [%s] %3.0f%% %s/%s %s ETA %s",
		w.label, bar, percent,
		humanize.Bytes(uint64(w.written)), humanize.Bytes(uint64(w.total)),
		rate, eta)
}

func pad(line string) string {
	if len(line) < lineWidth {
		return line + strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}

// formatDuration renders seconds as M:SS or H:MM:SS.
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ShouldShow reports whether progress should be drawn on f.
func ShouldShow(f *os.File) bool {
	return IsTerminalFunc(int(f.Fd()))
}
