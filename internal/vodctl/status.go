package vodctl

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vodforge/vodforge/internal/media"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status <media-id>",
	Short: "Check the processing status of a media item",
	Long: `Check where a media item is in the pipeline.

Examples:
  vodctl status 3f1a...            # One-shot status check
  vodctl status 3f1a... --watch    # Poll until READY or FAILED`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Poll until processing finishes")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusWatch {
		return watchStatus(cmd.Context(), args[0])
	}

	item, err := apiClient.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(item)
	}

	printItem(item)
	return nil
}

func watchStatus(ctx context.Context, mediaID string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		item, err := apiClient.Status(ctx, mediaID)
		if err != nil {
			return err
		}

		switch item.Status {
		case media.StatusReady:
			if jsonOutput {
				return printJSON(item)
			}
			fmt.Printf("%s processing complete\n", successIcon)
			printItem(item)
			return nil
		case media.StatusFailed:
			if jsonOutput {
				return printJSON(item)
			}
			fmt.Printf("%s processing failed\n", errorIcon)
			printItem(item)
			return fmt.Errorf("media %s failed processing", mediaID)
		}

		if !jsonOutput {
			fmt.Printf("%s status: %s\n", infoIcon, item.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printItem(item *media.Item) {
	printKeyValue("ID", item.ID)
	printKeyValue("Title", item.Title)
	printKeyValue("Status", colorStatus(item.Status))
	printKeyValue("Content-Type", item.ContentType)
	printKeyValue("Location", item.Location)
	printKeyValue("Created", item.CreatedAt.Format(time.RFC3339))
	printKeyValue("Updated", item.UpdatedAt.Format(time.RFC3339))
}

func colorStatus(status media.Status) string {
	switch status {
	case media.StatusReady:
		return color.GreenString(string(status))
	case media.StatusFailed:
		return color.RedString(string(status))
	case media.StatusProcessing:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}
