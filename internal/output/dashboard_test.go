package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tanq16/rangedl/internal/progress"
)

func TestDashboardRunReturnsWhenComplete(t *testing.T) {
	reg := progress.New(4)
	var buf bytes.Buffer
	d := NewDashboard(&buf, 1000, reg, DashboardOptions{Interval: 5 * time.Millisecond})

	go func() {
		for i := range 4 {
			time.Sleep(5 * time.Millisecond)
			reg.Add(i, 250)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run returned %v, want nil after completion", err)
	}
	out := buf.String()
	if !strings.Contains(out, "TOTAL") {
		t.Errorf("output has no TOTAL line:\n%s", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("final frame does not show 100%%:\n%s", out)
	}
}

func TestDashboardRunStopsOnCancel(t *testing.T) {
	reg := progress.New(2)
	reg.Add(0, 10)
	var buf bytes.Buffer
	d := NewDashboard(&buf, 1000, reg, DashboardOptions{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestDashboardRedrawsInPlace(t *testing.T) {
	reg := progress.New(2)
	var buf bytes.Buffer
	d := newDashboard(&buf, 100, reg, DashboardOptions{}, 80, true)

	d.draw(reg.Snapshot())
	if strings.Contains(buf.String(), "\033[J") {
		t.Fatalf("first frame should not move the cursor")
	}
	buf.Reset()
	d.draw(reg.Snapshot())
	// two workers, the total bar and the byte counts
	if !strings.HasPrefix(buf.String(), "\033[4A\033[J") {
		t.Errorf("second frame does not start with cursor reset: %q", buf.String()[:min(len(buf.String()), 12)])
	}
}

func TestDashboardNonTerminalGetsFinalFrameOnly(t *testing.T) {
	reg := progress.New(2)
	var buf bytes.Buffer
	d := newDashboard(&buf, 100, reg, DashboardOptions{}, 0, false)

	reg.Add(0, 50)
	if d.tick() {
		t.Fatal("tick reported completion at 50 of 100 bytes")
	}
	if buf.Len() != 0 {
		t.Errorf("intermediate frame written to a non-terminal: %q", buf.String())
	}
	reg.Add(1, 50)
	if !d.tick() {
		t.Fatal("tick did not report completion")
	}
	if !strings.Contains(buf.String(), "TOTAL") || !strings.Contains(buf.String(), "100.0%") {
		t.Errorf("final frame missing:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "\033[J") {
		t.Errorf("cursor movement written to a non-terminal: %q", buf.String())
	}
}

func TestDashboardFitsTerminalWidth(t *testing.T) {
	expected := int64(123_456 * mebibyte)
	for _, width := range []int{80, 60} {
		for _, workers := range []int{4, 16} {
			reg := progress.New(workers)
			d := newDashboard(io.Discard, expected, reg, DashboardOptions{}, width, true)
			snapshot := make([]int64, workers)
			for i := range snapshot {
				snapshot[i] = expected / int64(workers)
			}
			frame := d.Render(snapshot, 3*time.Second)
			for _, line := range strings.Split(strings.TrimSuffix(frame, "\n"), "\n") {
				if got := lipgloss.Width(line); got > width {
					t.Errorf("width %d, %d workers: line is %d columns: %q", width, workers, got, line)
				}
			}
			if got := d.rows(frame); got != workers+2 {
				t.Errorf("width %d, %d workers: rows = %d, want %d", width, workers, got, workers+2)
			}
		}
	}
}

func TestDashboardBarWidthClamp(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, DefaultBarWidth},
		{120, DefaultBarWidth},
		{80, DefaultBarWidth},
		{50, 29},
		{20, minBarWidth},
	}
	for _, tt := range tests {
		d := newDashboard(io.Discard, 100, progress.New(4), DashboardOptions{}, tt.width, tt.width > 0)
		if d.barWidth != tt.want {
			t.Errorf("width %d: barWidth = %d, want %d", tt.width, d.barWidth, tt.want)
		}
	}
}

func TestDashboardCountsWrappedRows(t *testing.T) {
	reg := progress.New(2)
	var buf bytes.Buffer
	d := newDashboard(&buf, 100, reg, DashboardOptions{}, 20, true)

	frame := d.Render(reg.Snapshot(), time.Second)
	lines := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")
	rows := d.rows(frame)
	if rows <= len(lines) {
		t.Fatalf("rows = %d for %d lines wider than 20 columns", rows, len(lines))
	}
	d.draw(reg.Snapshot())
	buf.Reset()
	d.draw(reg.Snapshot())
	if want := fmt.Sprintf("\033[%dA\033[J", rows); !strings.HasPrefix(buf.String(), want) {
		t.Errorf("redraw moved the cursor by the wrong amount: %q, want prefix %q", buf.String()[:min(len(buf.String()), 12)], want)
	}
}

func TestDashboardRenderClampsLastWorker(t *testing.T) {
	d := NewDashboard(&bytes.Buffer{}, 1001, progress.New(4), DashboardOptions{})
	// floor share is 250; the last worker owns 251 bytes
	frame := d.Render([]int64{250, 125, 0, 251}, time.Second)
	lines := strings.Split(strings.TrimRight(frame, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), frame)
	}
	cases := []struct {
		line int
		want string
	}{
		{0, "100.0%"},
		{1, " 50.0%"},
		{2, "  0.0%"},
		{3, "100.0%"},
	}
	for _, c := range cases {
		if !strings.Contains(lines[c.line], c.want) {
			t.Errorf("line %d = %q, want it to contain %q", c.line, lines[c.line], c.want)
		}
		if strings.Contains(lines[c.line], "100.4%") {
			t.Errorf("line %d exceeds 100%%: %q", c.line, lines[c.line])
		}
	}
	if !strings.Contains(lines[0], "Worker 01") || !strings.Contains(lines[3], "Worker 04") {
		t.Errorf("worker labels missing:\n%s", frame)
	}
	if !strings.Contains(lines[4], "TOTAL") || !strings.Contains(lines[5], "(0 MB / 0 MB)") {
		t.Errorf("total section = %q / %q, want integer MB counts", lines[4], lines[5])
	}
}

func TestDashboardRenderTotal(t *testing.T) {
	expected := int64(8 * mebibyte)
	d := NewDashboard(&bytes.Buffer{}, expected, progress.New(2), DashboardOptions{})
	frame := d.Render([]int64{2 * mebibyte, 2 * mebibyte}, 2*time.Second)
	if !strings.Contains(frame, " 50.0%") || !strings.Contains(frame, "(4 MB / 8 MB)") {
		t.Errorf("unexpected total line:\n%s", frame)
	}
	if !strings.Contains(frame, "2.0 MiB/s") {
		t.Errorf("missing speed readout:\n%s", frame)
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 20},
		{100, 40},
		{150, 40},
		{-5, 0},
	}
	for _, tt := range tests {
		bar := renderBar(tt.percent, 40)
		if got := strings.Count(bar, StyleSymbols["hline"]); got != tt.filled {
			t.Errorf("renderBar(%v) filled %d cells, want %d", tt.percent, got, tt.filled)
		}
		if got := strings.Count(bar, " ") + strings.Count(bar, StyleSymbols["hline"]); got != 40 {
			t.Errorf("renderBar(%v) is %d cells wide, want 40", tt.percent, got)
		}
	}
}
