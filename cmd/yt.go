package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/rangedl/internal/utils"
)

func newYtCmd() *cobra.Command {
	var outputPath string
	var format string

	cmd := &cobra.Command{
		Use:     "yt [URL] [--output OUTPUT_PATH] [--format FORMAT]",
		Short:   "Resolve a video page with yt-dlp and download the direct URL",
		Aliases: []string{"youtube"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			log.Debug().Str("op", "cmd/yt").Msgf("resolving %s with format %q", args[0], format)
			runSingle(utils.DownloadJob{
				SourceURL:  args[0],
				Resolve:    true,
				OutputPath: outputPath,
			}, format)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (defaults to video.mp4)")
	cmd.Flags().StringVar(&format, "format", "", "yt-dlp format selector (defaults to the config value, 18)")
	return cmd
}
