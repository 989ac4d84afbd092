// Package logging builds the slog loggers used by the docstory commands.
//
// Verbosity none shows informational messages, warnings and errors; basic
// adds debug detail; full adds per-node traces and copies everything to a
// log file in the debug folder.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LevelTrace is below slog.LevelDebug and only enabled at full verbosity.
const LevelTrace = slog.Level(-8)

// Verbosity selects how much is logged.
type Verbosity string

const (
	VerbosityNone  Verbosity = "none"
	VerbosityBasic Verbosity = "basic"
	VerbosityFull  Verbosity = "full"
)

// ParseVerbosity accepts none, basic or full. The empty string is none.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VerbosityNone, nil
	case VerbosityNone, VerbosityBasic, VerbosityFull:
		return v, nil
	default:
		return VerbosityNone, fmt.Errorf("unknown verbosity %q, want none, basic or full", s)
	}
}

// Level is the lowest slog level shown at this verbosity.
func (v Verbosity) Level() slog.Level {
	switch v {
	case VerbosityBasic:
		return slog.LevelDebug
	case VerbosityFull:
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger writing to w at the given verbosity.
func New(w io.Writer, v Verbosity) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       v.Level(),
		ReplaceAttr: traceName,
	}))
}

// traceName prints LevelTrace as TRACE instead of DEBUG-4.
func traceName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// Session is the logging setup of one run. At full verbosity it owns a log
// file and names a companion JSON file for the final story document.
type Session struct {
	Logger   *slog.Logger
	LogPath  string
	JSONPath string

	file *os.File
}

// Start builds the logger for a run titled title. At full verbosity the
// log is also written to a fresh file in folder, or the temp directory
// when folder is empty.
func Start(w io.Writer, v Verbosity, title, folder string) (*Session, error) {
	if v != VerbosityFull {
		return &Session{Logger: New(w, v)}, nil
	}
	if folder == "" {
		folder = os.TempDir()
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating debug folder: %w", err)
	}
	now := time.Now()
	logPath, jsonPath := DebugPaths(SafeFilename(title, now), folder)
	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	fmt.Fprintf(f, "=== docstory debug log ===\nDate: %s\nTitle: %s\nVerbosity: %s\n\n",
		now.Format("2006-01-02 15:04:05"), title, v)

	return &Session{
		Logger:   New(io.MultiWriter(w, f), v),
		LogPath:  logPath,
		JSONPath: jsonPath,
		file:     f,
	}, nil
}

// WriteJSON saves the final story document next to the log file. It does
// nothing when the session has no debug folder.
func (s *Session) WriteJSON(data []byte) error {
	if s.JSONPath == "" {
		return nil
	}
	if err := os.WriteFile(s.JSONPath, data, 0o644); err != nil {
		return fmt.Errorf("writing debug json: %w", err)
	}
	s.Logger.Log(context.Background(), LevelTrace, "story document saved", "path", s.JSONPath)
	return nil
}

// Close closes the log file, if any.
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

var (
	unsafeChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	underscores = regexp.MustCompile(`__+`)
)

// SafeFilename turns a title into a file name stem with a date suffix,
// for example "Harbour_walk_2026-03-01".
func SafeFilename(title string, now time.Time) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = "storymap"
	}
	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.ReplaceAll(base, " ", "_")
	base = underscores.ReplaceAllString(base, "_")
	return base + "_" + now.Format("2006-01-02")
}

// DebugPaths returns a log and JSON path pair in folder that are both
// unused, adding _2, _3 and so on to the stem as needed.
func DebugPaths(stem, folder string) (logPath, jsonPath string) {
	name := stem
	for n := 2; ; n++ {
		logPath = filepath.Join(folder, name+".txt")
		jsonPath = filepath.Join(folder, name+".json")
		if !exists(logPath) && !exists(jsonPath) {
			return logPath, jsonPath
		}
		name = stem + "_" + strconv.Itoa(n)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
