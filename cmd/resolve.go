package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/rangedl/internal/output"
	"github.com/tanq16/rangedl/internal/utils"
)

func newResolveCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve [URL] [--format FORMAT]",
		Short: "Print the direct media URL yt-dlp resolves for a page",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signalContext()
			defer stop()
			r, err := newResolver(ctx, format)
			if err != nil {
				output.PrintError(fmt.Sprintf("%s: %v", utils.Kind(err), err))
				os.Exit(1)
			}
			link, err := r.Resolve(ctx, args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("%s: %v", utils.Kind(err), err))
				os.Exit(1)
			}
			fmt.Println(link)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "yt-dlp format selector (defaults to the config value, 18)")
	return cmd
}
