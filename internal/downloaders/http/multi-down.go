package rangehttp

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
	"golang.org/x/sync/errgroup"
)

type FetchPlan struct {
	URL        string
	OutputPath string
	Ranges     []utils.Range
	BufferSize int
}

// SegmentPaths lists the part files of the plan in range order.
func (p FetchPlan) SegmentPaths() []string {
	paths := make([]string, len(p.Ranges))
	for i, r := range p.Ranges {
		paths[i] = utils.SegmentPath(p.OutputPath, r.Index)
	}
	return paths
}

// FetchAll runs one fetcher per range. The first failure cancels the others
// and is returned; on success every segment holds exactly its range.
func FetchAll(ctx context.Context, client utils.HTTPDoer, plan FetchPlan, sink ProgressSink) error {
	if err := os.MkdirAll(utils.TempDir(plan.OutputPath), 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	paths := plan.SegmentPaths()
	for i, rng := range plan.Ranges {
		seg := SegmentRequest{
			URL:        plan.URL,
			Range:      rng,
			Path:       paths[i],
			BufferSize: plan.BufferSize,
		}
		g.Go(func() error {
			_, err := FetchSegment(gctx, client, seg, sink)
			if err != nil {
				log.Error().Str("op", "http/multi-down").Err(err).Int("worker", seg.Range.Index).Msg("segment failed")
			}
			return err
		})
	}
	return g.Wait()
}
