package vodctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	uploadTitle       string
	uploadDescription string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a source video for transcoding",
	Long: `Upload a source video. The server stores the original, queues a
transcode job, and returns the new media record.

Examples:
  vodctl upload talk.mp4
  vodctl upload talk.mp4 --title "Conference talk" --description "Day 1 keynote"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "Title for the media item")
	uploadCmd.Flags().StringVar(&uploadDescription, "description", "", "Description for the media item")
}

func runUpload(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", filePath, err)
	}

	if !jsonOutput {
		fmt.Printf("%s uploading %s (%s)\n", infoIcon, filePath, formatSize(info.Size()))
	}

	item, err := apiClient.Upload(cmd.Context(), filePath, uploadTitle, uploadDescription)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(item)
	}

	fmt.Printf("%s upload accepted\n", successIcon)
	printKeyValue("ID", item.ID)
	printKeyValue("Title", item.Title)
	printKeyValue("Status", item.Status)
	fmt.Printf("\n  Track progress with: vodctl status %s --watch\n", item.ID)
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
