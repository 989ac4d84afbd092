package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/docstory"
	"github.com/tsawler/docstory/config"
	"github.com/tsawler/docstory/journal"
	"github.com/tsawler/docstory/logging"
	"github.com/tsawler/docstory/portal"
	"github.com/tsawler/docstory/publish"
)

var (
	pubTitle       string
	pubTags        []string
	pubSummary     string
	pubDescription string
	pubCover       string
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Publish a document as a new story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		v, err := verbosity()
		if err != nil {
			return err
		}
		title := pubTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		session, err := logging.Start(cmd.ErrOrStderr(), v, title, c.DebugOutputFolder)
		if err != nil {
			return err
		}
		defer session.Close()
		logger := session.Logger
		if session.LogPath != "" {
			logger.Info("debug log started", "path", session.LogPath)
		}

		blocks, err := extractBlocks(args[0], logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		store, err := journal.Open(c.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()

		story := portal.NewStory(newClient(c, logger), portal.StoryOptions{
			Title:      title,
			Summary:    pubSummary,
			Tags:       pubTags,
			CoverImage: pubCover,
			Logger:     logger,
		})

		var doc bytes.Buffer
		report, err := docstory.PublishBlocks(ctx, story, blocks,
			publish.WithLogger(logger),
			publish.WithJournal(store),
			publish.WithDescription(pubDescription),
			publish.WithDocumentOutput(&doc),
		)
		if doc.Len() > 0 {
			if werr := session.WriteJSON(doc.Bytes()); werr != nil {
				logger.Warn("debug json not written", "error", werr)
			}
		}
		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		return resumeHint(story.ItemID(), err)
	},
}

func init() {
	publishCmd.Flags().StringVarP(&pubTitle, "title", "t", "", "story title (default is the file name)")
	publishCmd.Flags().StringSliceVar(&pubTags, "tags", nil, "comma-separated item tags")
	publishCmd.Flags().StringVar(&pubSummary, "summary", "", "summary shown on the cover")
	publishCmd.Flags().StringVar(&pubDescription, "description", "", "paragraph placed before the document content")
	publishCmd.Flags().StringVar(&pubCover, "cover", "", "cover image file")
	addExtractFlags(publishCmd)
	rootCmd.AddCommand(publishCmd)
}

func newClient(c *config.Global, logger *slog.Logger) *portal.Client {
	return portal.NewClient(c.PortalURL, c.Username, c.Password,
		c.HTTPTimeout(), c.RetryMaxAttempts, c.RetryBaseDelay(), c.RetryMaxDelay()).WithLogger(logger)
}

func printReport(w io.Writer, r *publish.Report) {
	fmt.Fprintf(w, "✓ Item %s\n", r.ItemID)
	if r.Created > 0 || r.Skipped > 0 {
		fmt.Fprintf(w, "  blocks placed: %d (skipped %d)\n", r.Created, r.Skipped)
	}
	fmt.Fprintf(w, "  replacements: %d, deletions: %d, images updated: %d\n", r.Replacements, r.Deletions, r.ImagesUpdated)
	if r.DraftUpdated {
		fmt.Fprintln(w, "  draft updated")
	}
}

// resumeHint points at the resume command when the item was saved but not
// fully patched.
func resumeHint(itemID string, err error) error {
	if err == nil || itemID == "" {
		return err
	}
	var partial *publish.PartialFailureError
	if errors.As(err, &partial) {
		return fmt.Errorf("%w\nthe item data was patched but the draft was not; run `docstory resume %s`", err, itemID)
	}
	return fmt.Errorf("%w\nthe story was created; run `docstory resume %s` to retry the content patch", err, itemID)
}
