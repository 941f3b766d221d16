package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type JobReport struct {
	Name     string
	Status   string
	Message  string
	Error    error
	Duration time.Duration
	Time     time.Time
}

// Summary collects the outcome of every job in a run and prints a report once
// all of them have finished.
type Summary struct {
	mutex   sync.Mutex
	reports []JobReport
}

func NewSummary() *Summary {
	return &Summary{}
}

func (s *Summary) Add(report JobReport) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if report.Time.IsZero() {
		report.Time = time.Now()
	}
	if report.Status == "" {
		report.Status = "success"
		if report.Error != nil {
			report.Status = "error"
		}
	}
	s.reports = append(s.reports, report)
}

func (s *Summary) Failures() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	failures := 0
	for _, r := range s.reports {
		if r.Status == "error" {
			failures++
		}
	}
	return failures
}

func statusIndicator(status string) string {
	switch status {
	case "success", "pass":
		return successStyle.Render(StyleSymbols["pass"])
	case "error", "fail":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (s *Summary) Print(w io.Writer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fmt.Fprintln(w)
	var success, failures int
	for _, r := range s.reports {
		switch r.Status {
		case "success":
			success++
		case "error":
			failures++
		}
		line := fmt.Sprintf("%s %s", statusIndicator(r.Status), r.Name)
		if r.Message != "" {
			line += " " + debugStyle.Render(r.Message)
		}
		if r.Duration > 0 {
			line += " " + streamStyle.Render(fmt.Sprintf("(%s)", r.Duration.Round(time.Millisecond)))
		}
		fmt.Fprintln(w, strings.Repeat(" ", 2)+line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat(" ", 2)+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(s.reports))))
	if failures > 0 {
		fmt.Fprintln(w, strings.Repeat(" ", 2)+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(s.reports))))
	}
	s.printErrors(w)
	fmt.Fprintln(w)
}

func (s *Summary) printErrors(w io.Writer) {
	var n int
	for _, r := range s.reports {
		if r.Error == nil {
			continue
		}
		if n == 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
		}
		n++
		fmt.Fprintf(w, "%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", n)),
			debugStyle.Render(fmt.Sprintf("[%s]", r.Time.Format("15:04:05"))),
			errorStyle.Render(fmt.Sprintf("Job: %s", r.Name)))
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Error: %v", r.Error)))
	}
}
