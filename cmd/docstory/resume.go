package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tsawler/docstory/journal"
	"github.com/tsawler/docstory/portal"
	"github.com/tsawler/docstory/publish"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <item-id>",
	Short: "Re-run the content patch of a story from the journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		logger, err := stderrLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		itemID := args[0]

		store, err := journal.Open(c.JournalPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		pm, err := store.Load(ctx, itemID)
		if errors.Is(err, journal.ErrNotFound) {
			return fmt.Errorf("no journaled placements for item %s", itemID)
		}
		if err != nil {
			return err
		}
		logger.Info("placements loaded", "item", itemID, "placements", pm.Len())

		story := portal.Attach(newClient(c, logger), itemID, logger)
		report, err := publish.New(story, publish.WithLogger(logger)).Patch(ctx, pm)
		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}
		return store.Clear(ctx, itemID)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List stories whose content patch has not completed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if cfg != nil {
			path = cfg.JournalPath
		}
		if path == "" {
			return errors.New("no journal path configured")
		}
		store, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.Items(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, "(no pending stories)")
			return nil
		}
		for _, e := range items {
			fmt.Fprintf(out, "- %s: %d placements (%s)\n", e.ItemID, e.Placements, e.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(pendingCmd)
}
