package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	rangehttp "github.com/tanq16/rangedl/internal/downloaders/http"
	"github.com/tanq16/rangedl/internal/output"
	"github.com/tanq16/rangedl/internal/progress"
	"github.com/tanq16/rangedl/internal/resolver"
	"github.com/tanq16/rangedl/internal/utils"
)

type State string

const (
	StateResolving   State = "Resolving"
	StateSizeProbing State = "SizeProbing"
	StatePlanning    State = "Planning"
	StatePreflight   State = "Preflight"
	StateFetching    State = "Fetching"
	StateMerging     State = "Merging"
	StatePublishing  State = "Publishing"
	StateDone        State = "Done"
)

// Publisher uploads a finished file and returns where it was stored.
type Publisher interface {
	Publish(ctx context.Context, localPath, uri string) (string, error)
}

type Deps struct {
	Client    utils.HTTPDoer
	Resolver  resolver.Resolver
	Publisher Publisher
	// Dashboard receives progress frames; nil disables rendering.
	Dashboard       io.Writer
	RefreshInterval time.Duration
	BarWidth        int
	BufferSize      int
	Deadline        time.Duration
	DiskFree        func(path string) (uint64, error)
}

type Result struct {
	Job      utils.DownloadJob
	State    State
	Output   string
	Location string
	Duration time.Duration
	Err      error
}

type run struct {
	job    utils.DownloadJob
	deps   Deps
	state  State
	result Result
}

func (r *run) transition(next State) {
	log.Info().Str("op", "scheduler/orchestrator").Str("job", r.job.ID).Str("from", string(r.state)).Str("to", string(next)).Msg("state transition")
	r.state = next
}

func (r *run) fail(err error) Result {
	log.Error().Str("op", "scheduler/orchestrator").Str("job", r.job.ID).Str("state", string(r.state)).Err(err).Msg("job failed")
	r.result.Job = r.job
	r.result.State = r.state
	r.result.Err = err
	r.result.Duration = time.Since(r.job.StartTime)
	return r.result
}

// RunJob drives one download through resolution, size probing, planning,
// the disk preflight, the parallel fetch and the merge, then publishes the
// result when an upload target is set. Any stage error ends the job; the
// merge never runs after a failed fetch.
func RunJob(ctx context.Context, job utils.DownloadJob, deps Deps) Result {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.StartTime = time.Now()
	if job.Connections <= 0 {
		job.Connections = utils.DefaultConnections
	}
	if deps.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deps.Deadline)
		defer cancel()
	}
	r := &run{job: job, deps: deps}

	r.transition(StateResolving)
	link, err := r.resolve(ctx)
	if err != nil {
		return r.fail(err)
	}
	r.job.ResolvedURL = link

	r.transition(StateSizeProbing)
	info, err := rangehttp.ProbeSize(ctx, deps.Client, link)
	if err != nil {
		return r.fail(err)
	}
	r.job.TotalSize = info.Size
	r.job.OutputPath = outputPathFor(r.job.OutputPath, info.FileName, link)

	r.transition(StatePlanning)
	workers := int(min(int64(r.job.Connections), r.job.TotalSize))
	ranges, err := rangehttp.PlanRanges(r.job.TotalSize, workers)
	if err != nil {
		return r.fail(err)
	}
	log.Debug().Str("op", "scheduler/orchestrator").Str("job", r.job.ID).Int("workers", workers).Int64("size", r.job.TotalSize).Msg("ranges planned")

	r.transition(StatePreflight)
	if err := preflight(r.job.OutputPath, r.job.TotalSize, ranges, deps.DiskFree); err != nil {
		return r.fail(err)
	}

	r.transition(StateFetching)
	plan := rangehttp.FetchPlan{
		URL:        link,
		OutputPath: r.job.OutputPath,
		Ranges:     ranges,
		BufferSize: deps.BufferSize,
	}
	if err := r.fetch(ctx, plan); err != nil {
		return r.fail(err)
	}

	r.transition(StateMerging)
	sizes := make([]int64, len(ranges))
	for i, rng := range ranges {
		sizes[i] = rng.Length()
	}
	if _, err := rangehttp.MergeSegments(rangehttp.MergeRequest{
		Segments:   plan.SegmentPaths(),
		Sizes:      sizes,
		OutputPath: r.job.OutputPath,
		TempPath:   utils.MergeTempPath(r.job.OutputPath, r.job.ID),
	}); err != nil {
		return r.fail(err)
	}
	r.result.Output = r.job.OutputPath

	if r.job.UploadURI != "" {
		r.transition(StatePublishing)
		if deps.Publisher == nil {
			return r.fail(fmt.Errorf("%w: no publisher configured for %s", utils.ErrPublish, r.job.UploadURI))
		}
		location, err := deps.Publisher.Publish(ctx, r.job.OutputPath, r.job.UploadURI)
		if err != nil {
			return r.fail(err)
		}
		r.result.Location = location
	}

	r.transition(StateDone)
	r.result.Job = r.job
	r.result.State = StateDone
	r.result.Duration = time.Since(r.job.StartTime)
	log.Info().Str("op", "scheduler/orchestrator").Str("job", r.job.ID).Str("output", r.result.Output).Dur("took", r.result.Duration).Msg("job complete")
	return r.result
}

func (r *run) resolve(ctx context.Context) (string, error) {
	link := r.job.SourceURL
	if r.job.Resolve {
		if r.deps.Resolver == nil {
			return "", fmt.Errorf("%w: no resolver configured", utils.ErrResolutionFailed)
		}
		resolved, err := r.deps.Resolver.Resolve(ctx, link)
		if err != nil {
			return "", err
		}
		link = resolved
	}
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		if r.job.Resolve {
			return "", fmt.Errorf("%w: resolver returned %q", utils.ErrResolutionFailed, link)
		}
		return "", fmt.Errorf("%w: not an http(s) URL: %q", utils.ErrInvalidInput, link)
	}
	return link, nil
}

// fetch runs every range fetcher while the dashboard polls the registry.
// A fetch failure stops the dashboard before returning.
func (r *run) fetch(ctx context.Context, plan rangehttp.FetchPlan) error {
	registry := progress.New(len(plan.Ranges))
	if r.deps.Dashboard == nil {
		return rangehttp.FetchAll(ctx, r.deps.Client, plan, registry)
	}
	dashCtx, stopDashboard := context.WithCancel(ctx)
	defer stopDashboard()
	dashboard := output.NewDashboard(r.deps.Dashboard, r.job.TotalSize, registry, output.DashboardOptions{
		Interval: r.deps.RefreshInterval,
		BarWidth: r.deps.BarWidth,
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		dashboard.Run(dashCtx)
	}()
	err := rangehttp.FetchAll(ctx, r.deps.Client, plan, registry)
	if err != nil {
		stopDashboard()
	}
	<-done
	return err
}

// outputPathFor picks the destination: an explicit file path wins, otherwise
// a name derived from the response or the URL is placed in the given
// directory. Existing files are never overwritten.
func outputPathFor(requested, dispositionName, link string) string {
	dir, name := "", requested
	if requested != "" {
		if info, err := os.Stat(requested); err == nil && info.IsDir() {
			dir, name = requested, ""
		}
	}
	if name == "" {
		name = dispositionName
		if name == "" {
			name = utils.OutputNameFromURL(link)
		}
		if name == "" {
			name = utils.DefaultOutputName
		}
		name = filepath.Join(dir, name)
	}
	if _, err := os.Stat(name); err == nil {
		renewed := utils.RenewOutputPath(name)
		log.Warn().Str("op", "scheduler/orchestrator").Msgf("%s exists, saving to %s", name, renewed)
		return renewed
	}
	return name
}
