package rangehttp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
)

type MergeRequest struct {
	Segments   []string
	Sizes      []int64
	OutputPath string
	TempPath   string
}

// MergeSegments concatenates the segments in index order into TempPath,
// deleting each one once appended, then renames TempPath onto OutputPath.
// The final name only ever holds a complete file.
func MergeSegments(req MergeRequest) (int64, error) {
	if len(req.Segments) != len(req.Sizes) {
		return 0, fmt.Errorf("%w: %d segments but %d sizes", utils.ErrInvalidInput, len(req.Segments), len(req.Sizes))
	}
	// Validate everything before touching any segment so a failed merge leaves
	// the parts in place for inspection.
	for i, path := range req.Segments {
		if err := checkSegment(i, path, req.Sizes[i]); err != nil {
			return 0, err
		}
	}

	tempPath := req.TempPath
	if tempPath == "" {
		tempPath = req.OutputPath + ".tmp"
	}
	dest, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating output: %v", utils.ErrMerge, err)
	}
	var total int64
	for i, path := range req.Segments {
		written, err := appendSegment(dest, path)
		total += written
		if err == nil && written != req.Sizes[i] {
			err = fmt.Errorf("copied %d bytes, expected %d", written, req.Sizes[i])
		}
		if err != nil {
			dest.Close()
			os.Remove(tempPath)
			return total, &utils.MergeError{Index: i, Path: path, Err: err}
		}
		if err := os.Remove(path); err != nil {
			log.Warn().Str("op", "http/assemble").Err(err).Msgf("could not remove segment %s", path)
		}
	}
	if err := dest.Sync(); err != nil {
		dest.Close()
		os.Remove(tempPath)
		return total, fmt.Errorf("%w: error syncing output: %v", utils.ErrMerge, err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(tempPath)
		return total, fmt.Errorf("%w: error closing output: %v", utils.ErrMerge, err)
	}
	if err := os.Rename(tempPath, req.OutputPath); err != nil {
		os.Remove(tempPath)
		return total, fmt.Errorf("%w: error finalizing output: %v", utils.ErrMerge, err)
	}
	removeEmptyTempDir(req.Segments)
	log.Info().Str("op", "http/assemble").Int64("bytes", total).Msgf("merged %d segments into %s", len(req.Segments), req.OutputPath)
	return total, nil
}

func checkSegment(index int, path string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &utils.MergeError{Index: index, Path: path, Err: errors.New("segment missing")}
		}
		return &utils.MergeError{Index: index, Path: path, Err: err}
	}
	if info.Size() != size {
		return &utils.MergeError{Index: index, Path: path, Err: fmt.Errorf("segment is %d bytes, expected %d", info.Size(), size)}
	}
	return nil
}

func appendSegment(dest io.Writer, path string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return io.Copy(dest, src)
}

func removeEmptyTempDir(segments []string) {
	if len(segments) == 0 {
		return
	}
	dir := filepath.Dir(segments[0])
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		os.Remove(dir)
	}
}
