package resolver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
)

const DefaultFormat = "18"

// YtdlpResolver asks an external yt-dlp binary for the direct URL of a single
// progressive format.
type YtdlpResolver struct {
	Path   string
	Format string
}

func (r *YtdlpResolver) Resolve(ctx context.Context, link string) (string, error) {
	if strings.TrimSpace(link) == "" {
		return "", fmt.Errorf("%w: empty URL", utils.ErrInvalidInput)
	}
	format := r.Format
	if format == "" {
		format = DefaultFormat
	}
	args := []string{
		"-f", format,
		"-g",
		"--no-warnings",
		"--no-playlist",
		link,
	}
	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Debug().Str("op", "resolver/ytdlp").Msgf("executing yt-dlp command: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", utils.ErrResolutionFailed, ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return "", fmt.Errorf("%w: yt-dlp exited with %d: %s", utils.ErrResolutionFailed, exitErr.ExitCode(), msg)
		}
		return "", fmt.Errorf("%w: %v", utils.ErrResolutionFailed, err)
	}
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			log.Debug().Str("op", "resolver/ytdlp").Str("url", line).Msg("resolved direct URL")
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: yt-dlp printed no URL for %s", utils.ErrResolutionFailed, link)
}

// NewYtdlpResolver locates yt-dlp (downloading it when needed) and returns a
// resolver bound to it.
func NewYtdlpResolver(ctx context.Context, configuredPath, format, cacheDir string) (*YtdlpResolver, error) {
	path, err := EnsureYtdlp(ctx, configuredPath, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("%w: error ensuring yt-dlp: %v", utils.ErrResolutionFailed, err)
	}
	return &YtdlpResolver{Path: path, Format: format}, nil
}
