package utils

import "time"

// DownloadJob describes one source-to-file download. Fields after URL
// resolution are read-only for every worker.
type DownloadJob struct {
	ID          string
	SourceURL   string
	ResolvedURL string
	Resolve     bool
	OutputPath  string
	UploadURI   string
	TotalSize   int64
	Connections int
	StartTime   time.Time
}

// Range is an inclusive byte interval assigned to one worker.
type Range struct {
	Index int
	Start int64
	End   int64
}

func (r Range) Length() int64 {
	return r.End - r.Start + 1
}

type DownloadEntry struct {
	OutputPath string `yaml:"op,omitempty"`
	URL        string `yaml:"link"`
	Resolve    bool   `yaml:"resolve,omitempty"`
	UploadURI  string `yaml:"upload,omitempty"`
}

type BatchFile struct {
	Downloads []DownloadEntry `yaml:"downloads"`
}
