package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/rangedl/internal/output"
	"github.com/tanq16/rangedl/internal/scheduler"
	"github.com/tanq16/rangedl/internal/utils"
	"gopkg.in/yaml.v3"
)

func newBatchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [OPTIONS]",
		Short: "Process multiple downloads from a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			jobs, err := loadBatch(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			if len(jobs) == 0 {
				output.PrintError("No valid jobs found in the batch file")
				os.Exit(1)
			}
			ctx, stop := signalContext()
			defer stop()
			deps, err := buildDeps(ctx, jobs, format)
			if err != nil {
				output.PrintError(fmt.Sprintf("%s: %v", utils.Kind(err), err))
				os.Exit(1)
			}
			log.Debug().Str("op", "cmd/batch").Msgf("starting scheduler with %d jobs", len(jobs))
			if _, err := scheduler.Run(ctx, jobs, deps, os.Stdout); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "yt-dlp format selector for entries with resolve set")
	return cmd
}

// loadBatch reads a batch file into jobs. Entries without a link are skipped
// with a warning; the global --upload target applies to entries without one.
func loadBatch(path string) ([]utils.DownloadJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	var batchFile utils.BatchFile
	if err := yaml.Unmarshal(data, &batchFile); err != nil {
		return nil, fmt.Errorf("%w: error parsing YAML file: %v", utils.ErrInvalidInput, err)
	}
	var jobs []utils.DownloadJob
	for i, entry := range batchFile.Downloads {
		if entry.URL == "" {
			output.PrintWarning(fmt.Sprintf("Warning: entry %d has an empty link, skipping...", i+1))
			continue
		}
		job := utils.DownloadJob{
			SourceURL:   entry.URL,
			Resolve:     entry.Resolve,
			OutputPath:  entry.OutputPath,
			UploadURI:   entry.UploadURI,
			Connections: cfg.Connections,
		}
		if job.UploadURI == "" {
			job.UploadURI = uploadURI
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
