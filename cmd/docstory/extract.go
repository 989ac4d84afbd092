package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/docstory"
	"github.com/tsawler/docstory/model"
)

var (
	extractFormat string

	// Shared by extract and publish
	flagMediaDir string
	flagOCRAlt   bool
	flagOCRLang  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the content blocks of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := stderrLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		blocks, err := extractBlocks(args[0], logger)
		if err != nil {
			return err
		}
		return writeBlocks(cmd.OutOrStdout(), blocks, extractFormat)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "yaml", "output format: yaml, json or markdown")
	addExtractFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}

func addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagMediaDir, "media-dir", "", "directory for image copies (overrides config)")
	cmd.Flags().BoolVar(&flagOCRAlt, "ocr-alt", false, "recognise text in images without alt text (needs a build with -tags ocr)")
	cmd.Flags().StringVar(&flagOCRLang, "ocr-lang", "", "Tesseract languages for --ocr-alt, e.g. eng+fra")
}

// extractBlocks reads a document with the shared extraction flags and logs
// its warnings.
func extractBlocks(path string, logger *slog.Logger) ([]model.Block, error) {
	ext := docstory.Open(path).WithLogger(logger)
	dir := flagMediaDir
	if dir == "" && cfg != nil {
		dir = cfg.MediaDir
	}
	if dir != "" {
		ext = ext.MediaDir(dir)
	}
	if flagOCRAlt {
		ext = ext.OCRAltText(flagOCRLang)
	}
	blocks, warnings, err := ext.Blocks()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn(w.Message, "kind", w.Kind.String(), "position", w.Position)
	}
	return blocks, nil
}

func writeBlocks(w io.Writer, blocks []model.Block, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(model.EncodeAll(blocks)); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(model.EncodeAll(blocks))
	case "markdown", "md":
		md, err := docstory.Markdown(blocks)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		return fmt.Errorf("unknown format %q (use yaml, json or markdown)", format)
	}
}
