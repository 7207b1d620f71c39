package vodctl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	baseURL    string
	jsonOutput bool

	apiClient *Client
)

var (
	successIcon = color.GreenString("✓")
	errorIcon   = color.RedString("✗")
	infoIcon    = color.CyanString("→")
)

var rootCmd = &cobra.Command{
	Use:   "vodctl",
	Short: "vodforge CLI - upload videos and stream HLS renditions",
	Long: `vodctl is the command-line interface for vodforge.

Upload source videos, watch them move through the transcode pipeline,
and fetch the resulting HLS artifacts.

Get started:
  vodctl upload talk.mp4          # Upload a video
  vodctl status <media-id>        # Check processing status
  vodctl fetch <media-id>         # Download the HLS manifest`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = NewClient(baseURL)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("VODFORGE_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")

	rootCmd.SetVersionTemplate("vodctl version {{.Version}}\n")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(fetchCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printKeyValue(key string, value any) {
	fmt.Printf("  %s %v\n", color.HiBlackString(key+":"), value)
}
