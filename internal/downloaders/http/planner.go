package rangehttp

import (
	"fmt"

	"github.com/tanq16/rangedl/internal/utils"
)

// PlanRanges splits [0, totalSize) into workers contiguous inclusive ranges.
// Every range gets the floor share; the last one also takes the remainder.
func PlanRanges(totalSize int64, workers int) ([]utils.Range, error) {
	if totalSize <= 0 {
		return nil, fmt.Errorf("%w: total size must be positive, got %d", utils.ErrInvalidInput, totalSize)
	}
	if workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", utils.ErrInvalidInput, workers)
	}
	chunkSize := totalSize / int64(workers)
	ranges := make([]utils.Range, workers)
	for i := range workers {
		start := int64(i) * chunkSize
		end := start + chunkSize - 1
		if i == workers-1 {
			end = totalSize - 1
		}
		ranges[i] = utils.Range{Index: i, Start: start, End: end}
	}
	return ranges, nil
}
