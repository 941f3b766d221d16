package scheduler

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/output"
	"github.com/tanq16/rangedl/internal/utils"
)

// Run executes jobs one after another, since each owns the dashboard while it
// runs, and prints a summary to w. It returns an error if any job failed.
func Run(ctx context.Context, jobs []utils.DownloadJob, deps Deps, w io.Writer) ([]Result, error) {
	summary := output.NewSummary()
	results := make([]Result, 0, len(jobs))
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			log.Warn().Str("op", "scheduler/scheduler").Msgf("skipping %d remaining jobs: %v", len(jobs)-i, err)
			for _, skipped := range jobs[i:] {
				summary.Add(output.JobReport{Name: jobName(skipped), Status: "warning", Message: "skipped"})
			}
			break
		}
		if w != nil {
			fmt.Fprintf(w, "\n[%d/%d] %s\n", i+1, len(jobs), job.SourceURL)
		}
		res := RunJob(ctx, job, deps)
		results = append(results, res)
		report := output.JobReport{Name: jobName(res.Job), Error: res.Err, Duration: res.Duration}
		if res.Err == nil {
			report.Message = res.Output
			if res.Location != "" {
				report.Message += " -> " + res.Location
			}
		} else {
			report.Message = fmt.Sprintf("%s during %s", utils.Kind(res.Err), res.State)
		}
		summary.Add(report)
	}
	if w != nil {
		summary.Print(w)
	}
	failures := summary.Failures()
	if failures > 0 {
		return results, fmt.Errorf("%d of %d downloads failed", failures, len(jobs))
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func jobName(job utils.DownloadJob) string {
	if job.OutputPath != "" {
		return job.OutputPath
	}
	return job.SourceURL
}
