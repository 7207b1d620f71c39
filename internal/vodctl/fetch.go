package vodctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vodforge/vodforge/internal/media"
)

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch <media-id> [file]",
	Short: "Download an HLS artifact of a media item",
	Long: `Download one artifact of a processed media item. Without a file
argument the master manifest is fetched.

Examples:
  vodctl fetch 3f1a...                        # Manifest to stdout
  vodctl fetch 3f1a... segment_000.ts -o seg.ts`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Write to file instead of stdout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	mediaID := args[0]
	fileName := media.ManifestName
	if len(args) == 2 {
		fileName = args[1]
	}

	out := os.Stdout
	if fetchOutput != "" {
		f, err := os.Create(fetchOutput)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", fetchOutput, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	n, err := apiClient.Fetch(cmd.Context(), mediaID, fileName, out)
	if err != nil {
		return err
	}

	if fetchOutput != "" {
		fmt.Fprintf(os.Stderr, "%s wrote %s (%s)\n", successIcon, fetchOutput, formatSize(n))
	}
	return nil
}
