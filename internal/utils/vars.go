package utils

import (
	"errors"
	"regexp"
)

const (
	DefaultBufferSize    = 256 * 1024
	DefaultConnections   = 4
	DefaultOutputName    = "video.mp4"
	TempDirName          = ".rangedl-temp"
	ToolUserAgent        = "rangedl/1.0"
	HighThreadModeCutoff = 5
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrResolutionFailed  = errors.New("resolution failed")
	ErrSizeUnknown       = errors.New("size unknown")
	ErrFetch             = errors.New("fetch failed")
	ErrMerge             = errors.New("merge failed")
	ErrRangeNotHonored   = errors.New("server did not honor range request")
	ErrInsufficientSpace = errors.New("insufficient disk space")
	ErrPublish           = errors.New("publish failed")
)

var (
	ChunkIDRegex   = regexp.MustCompile(`\.part(\d+)$`)
	MergeTempRegex = regexp.MustCompile(`^\..+\.[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.tmp$`)
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"curl/8.5.0",
	"Wget/1.21.4",
}
