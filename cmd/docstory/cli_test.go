package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/docstory/config"
	"github.com/tsawler/docstory/journal"
	"github.com/tsawler/docstory/model"
	"github.com/tsawler/docstory/publish"
)

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flag state between invocations
	extractFormat = "yaml"
	flagMediaDir = ""
	flagOCRAlt = false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeHTML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "walk.html")
	doc := `<html><body><h1>Harbour walk</h1><p>Start at the <b>pier</b>.</p><hr></body></html>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_Extract(t *testing.T) {
	cfg = nil
	path := writeHTML(t)
	media := t.TempDir()

	t.Run("json", func(t *testing.T) {
		out, err := runCmd(t, "extract", path, "--format", "json", "--media-dir", media)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		var envs []model.Envelope
		if err := json.Unmarshal([]byte(out), &envs); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(envs) != 3 {
			t.Fatalf("got %d blocks, want 3", len(envs))
		}
		if envs[0].Kind != string(model.TextHeading2) || envs[2].Type != "separator" {
			t.Errorf("envelopes = %+v", envs)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := runCmd(t, "extract", path, "--media-dir", media)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if !strings.Contains(out, "markup: Harbour walk") {
			t.Errorf("yaml output:\n%s", out)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := runCmd(t, "extract", path, "-f", "markdown", "--media-dir", media)
		if err != nil {
			t.Fatalf("extract failed: %v", err)
		}
		if !strings.Contains(out, "## Harbour walk") || !strings.Contains(out, "**pier**") {
			t.Errorf("markdown output:\n%s", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if _, err := runCmd(t, "extract", path, "--format", "xml", "--media-dir", media); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestCLI_PublishRequiresCredentials(t *testing.T) {
	cfg = &config.Global{PortalURL: "https://example.com", Debug: "none"}
	defer func() { cfg = nil }()

	_, err := runCmd(t, "publish", writeHTML(t))
	if err == nil || !strings.Contains(err.Error(), "username") {
		t.Errorf("err = %v, want missing username", err)
	}
}

func TestCLI_Pending(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	cfg = &config.Global{JournalPath: dbPath}
	defer func() { cfg = nil }()

	out, err := runCmd(t, "pending")
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if !strings.Contains(out, "no pending stories") {
		t.Errorf("output = %q", out)
	}

	store, err := journal.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	pm := publish.NewPlaceholderMap()
	pm.Add(publish.Placement{NodeID: "n-aaaaaa", Marker: "PLACEHOLDER_TEXT_0", Block: &model.Text{Kind: model.TextParagraph, Markup: "Hi"}})
	if err := store.Record(context.Background(), "item42", pm); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err = runCmd(t, "pending")
	if err != nil {
		t.Fatalf("pending failed: %v", err)
	}
	if !strings.Contains(out, "- item42: 1 placements") {
		t.Errorf("output = %q", out)
	}
}

func TestResumeHint(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name   string
		itemID string
		err    error
		want   string
	}{
		{"no error", "item1", nil, ""},
		{"no item", "", base, "boom"},
		{"patch failed", "item1", base, "run `docstory resume item1` to retry"},
		{"partial", "item1", &publish.PartialFailureError{ItemID: "item1", Resource: "draft_1.json", Err: base}, "draft was not"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resumeHint(tt.itemID, tt.err)
			if tt.want == "" {
				if err != nil {
					t.Errorf("err = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
			if !errors.Is(err, base) {
				t.Error("hint lost the wrapped error")
			}
		})
	}
}
