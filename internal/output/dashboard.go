package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tanq16/rangedl/internal/progress"
)

const (
	DefaultRefreshInterval = 100 * time.Millisecond
	DefaultBarWidth        = 40
	minBarWidth            = 10
	mebibyte               = 1024 * 1024
)

type DashboardOptions struct {
	Interval time.Duration
	BarWidth int
}

// Dashboard polls a progress registry and redraws one bar per worker plus a
// total section. It never blocks the workers that feed the registry.
type Dashboard struct {
	w        io.Writer
	expected int64
	registry *progress.Registry
	interval time.Duration
	barWidth int
	// width is the terminal width in columns; tty is false for pipes and
	// files, which only receive the final frame.
	width   int
	tty     bool
	label   int
	numRows int
	start   time.Time
}

func NewDashboard(w io.Writer, expected int64, registry *progress.Registry, opts DashboardOptions) *Dashboard {
	width, tty := terminalWidth(w)
	return newDashboard(w, expected, registry, opts, width, tty)
}

func newDashboard(w io.Writer, expected int64, registry *progress.Registry, opts DashboardOptions, width int, tty bool) *Dashboard {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	d := &Dashboard{
		w:        w,
		expected: expected,
		registry: registry,
		interval: interval,
		barWidth: opts.BarWidth,
		width:    width,
		tty:      tty,
	}
	if d.barWidth <= 0 {
		d.barWidth = DefaultBarWidth
	}
	d.label = max(len("TOTAL"), lipgloss.Width(workerLabel(registry.Len())))
	if width > 0 {
		d.barWidth = max(minBarWidth, min(d.barWidth, width-d.barOverhead()))
	}
	return d
}

func workerLabel(i int) string {
	return fmt.Sprintf("Worker %02d", i)
}

// barOverhead is the number of columns a bar line uses besides the bar cells.
func (d *Dashboard) barOverhead() int {
	return lipgloss.Width(fmt.Sprintf("  %s %s%s %5.1f%%",
		strings.Repeat(" ", d.label), StyleSymbols["bullet"], StyleSymbols["bullet"], 100.0))
}

// Run draws a frame every interval until the registry total reaches the
// expected size, or ctx is done. The final frame is always drawn.
func (d *Dashboard) Run(ctx context.Context) error {
	d.start = time.Now()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		if d.tick() {
			return nil
		}
		select {
		case <-ctx.Done():
			d.draw(d.registry.Snapshot())
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick reports whether the download is complete, drawing a frame when the
// writer is a terminal or the download has just completed.
func (d *Dashboard) tick() bool {
	done := d.expected > 0 && d.registry.Total() >= d.expected
	if d.tty || done {
		d.draw(d.registry.Snapshot())
	}
	return done
}

func (d *Dashboard) draw(snapshot []int64) {
	frame := d.Render(snapshot, time.Since(d.start))
	if d.tty && d.numRows > 0 {
		fmt.Fprintf(d.w, "\033[%dA\033[J", d.numRows)
	}
	fmt.Fprint(d.w, frame)
	d.numRows = d.rows(frame)
}

// rows counts terminal rows in frame, including rows added by wrapping.
func (d *Dashboard) rows(frame string) int {
	n := 0
	for _, line := range strings.Split(strings.TrimSuffix(frame, "\n"), "\n") {
		lineWidth := lipgloss.Width(line)
		if d.width > 0 && lineWidth > d.width {
			n += (lineWidth + d.width - 1) / d.width
			continue
		}
		n++
	}
	return n
}

// Render builds a frame from per-worker counts. Each worker's percentage is
// measured against the floor share of the expected total and capped at 100,
// so the last worker, which also carries the remainder, may reach 100 early.
func (d *Dashboard) Render(snapshot []int64, elapsed time.Duration) string {
	var sb strings.Builder
	share := int64(1)
	if len(snapshot) > 0 && d.expected/int64(len(snapshot)) > 0 {
		share = d.expected / int64(len(snapshot))
	}
	var total int64
	for i, c := range snapshot {
		total += c
		pct := min(100, float64(c)*100/float64(share))
		fmt.Fprintf(&sb, "  %s %s %s\n",
			infoStyle.Render(fmt.Sprintf("%-*s", d.label, workerLabel(i+1))),
			pendingStyle.Render(renderBar(pct, d.barWidth)),
			debugStyle.Render(fmt.Sprintf("%5.1f%%", pct)),
		)
	}
	pct := 0.0
	if d.expected > 0 {
		pct = min(100, float64(total)*100/float64(d.expected))
	}
	var speed uint64
	if secs := elapsed.Seconds(); secs > 0 {
		speed = uint64(float64(total) / secs)
	}
	fmt.Fprintf(&sb, "  %s %s %s\n",
		headerStyle.Render(fmt.Sprintf("%-*s", d.label, "TOTAL")),
		success2Style.Render(renderBar(pct, d.barWidth)),
		success2Style.Render(fmt.Sprintf("%5.1f%%", pct)),
	)
	fmt.Fprintf(&sb, "  %s %s %s\n",
		strings.Repeat(" ", d.label),
		success2Style.Render(fmt.Sprintf("(%d MB / %d MB)", total/mebibyte, d.expected/mebibyte)),
		streamStyle.Render(fmt.Sprintf("%s %s/s", StyleSymbols["arrow"], humanize.IBytes(speed))),
	)
	return sb.String()
}
