package rangehttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
	"golang.org/x/time/rate"
)

// ProgressSink receives byte counts for a worker slot after each disk write.
type ProgressSink interface {
	Add(worker int, n int64)
}

type SegmentRequest struct {
	URL        string
	Range      utils.Range
	Path       string
	BufferSize int
}

// FetchSegment streams one range into its private segment file. Any failure is
// returned as a *utils.FetchError; there are no retries.
func FetchSegment(ctx context.Context, client utils.HTTPDoer, seg SegmentRequest, sink ProgressSink) (int64, error) {
	written, err := fetchSegment(ctx, client, seg, sink)
	if err != nil {
		return written, &utils.FetchError{Worker: seg.Range.Index, Range: seg.Range, Err: err}
	}
	return written, nil
}

func fetchSegment(ctx context.Context, client utils.HTTPDoer, seg SegmentRequest, sink ProgressSink) (int64, error) {
	rng := seg.Range
	expected := rng.Length()
	if expected <= 0 {
		return 0, fmt.Errorf("%w: empty range %d-%d", utils.ErrInvalidInput, rng.Start, rng.End)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seg.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", rng.Start, rng.End)
	req.Header.Set("Range", rangeHeader)
	req.Header.Set("Connection", "keep-alive")
	log.Debug().Str("op", "http/multi-chunk-handlers").Int("worker", rng.Index).Str("range", rangeHeader).Msg("sending range request")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		if resp.StatusCode == http.StatusOK {
			return 0, fmt.Errorf("%w: got 200 instead of 206", utils.ErrRangeNotHonored)
		}
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if contentRange := resp.Header.Get("Content-Range"); contentRange != "" {
		start, end, _, err := ParseContentRange(contentRange)
		if err != nil {
			return 0, err
		}
		if start != rng.Start || end != rng.End {
			return 0, fmt.Errorf("%w: asked %d-%d, got %d-%d", utils.ErrRangeNotHonored, rng.Start, rng.End, start, end)
		}
	}

	file, err := os.OpenFile(seg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("error opening segment file: %w", err)
	}
	defer file.Close()

	bufSize := seg.BufferSize
	if bufSize <= 0 {
		bufSize = utils.DefaultBufferSize
	}
	buffer := make([]byte, bufSize)
	// one extra byte lets an oversized body be detected without reading it all
	body := io.LimitReader(resp.Body, expected+1)
	progressLog := rate.Sometimes{Interval: time.Second}
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, err := file.Write(buffer[:n]); err != nil {
				return written, fmt.Errorf("error writing segment: %w", err)
			}
			written += int64(n)
			sink.Add(rng.Index, int64(n))
			progressLog.Do(func() {
				log.Debug().Str("op", "http/multi-chunk-handlers").Int("worker", rng.Index).Int64("written", written).Int64("expected", expected).Msg("segment progress")
			})
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return written, readErr
		}
	}
	if written != expected {
		return written, fmt.Errorf("size mismatch: expected %d bytes, got %d", expected, written)
	}
	if err := file.Sync(); err != nil {
		return written, fmt.Errorf("error syncing segment: %w", err)
	}
	log.Debug().Str("op", "http/multi-chunk-handlers").Int("worker", rng.Index).Int64("bytes", written).Msg("segment complete")
	return written, nil
}

// ParseContentRange parses "bytes start-end/total". Total is -1 when the
// server sends "*".
func ParseContentRange(header string) (start, end, total int64, err error) {
	rangeSpec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range: %q", header)
	}
	span, size, ok := strings.Cut(rangeSpec, "/")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range: %q", header)
	}
	first, last, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range: %q", header)
	}
	if start, err = strconv.ParseInt(first, 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range start: %w", err)
	}
	if end, err = strconv.ParseInt(last, 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range end: %w", err)
	}
	if size == "*" {
		return start, end, -1, nil
	}
	if total, err = strconv.ParseInt(size, 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range total: %w", err)
	}
	return start, end, total, nil
}
