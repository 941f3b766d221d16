package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/tanq16/rangedl/internal/utils"
)

func diskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// preflight requires the total size plus the largest range to be free in the
// output directory. A failing disk query only logs a warning.
func preflight(outputPath string, totalSize int64, ranges []utils.Range, free func(string) (uint64, error)) error {
	if free == nil {
		free = diskFree
	}
	var largest int64
	for _, r := range ranges {
		largest = max(largest, r.Length())
	}
	need := uint64(totalSize + largest)
	dir := existingDir(filepath.Dir(outputPath))
	available, err := free(dir)
	if err != nil {
		log.Warn().Str("op", "scheduler/preflight").Err(err).Msgf("could not query free space on %s", dir)
		return nil
	}
	log.Debug().Str("op", "scheduler/preflight").Str("need", humanize.IBytes(need)).Str("free", humanize.IBytes(available)).Msg("disk space check")
	if available < need {
		return fmt.Errorf("%w: need %s in %s, %s free", utils.ErrInsufficientSpace, humanize.IBytes(need), dir, humanize.IBytes(available))
	}
	return nil
}

// existingDir walks up from dir to the nearest directory that exists.
func existingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
