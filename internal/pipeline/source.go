package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultSourcePattern matches the daily metrics documents, capturing the
// date (e.g. COR_2026-08-28.txt).
const DefaultSourcePattern = `^COR_(\d{4}-\d{2}-\d{2})\.(txt|text)$`

// NewestDocument scans dir for filenames matching pattern (which must
// capture a 2006-01-02 date in its first group) and returns the path of
// the newest one with its date.
func NewestDocument(dir, pattern string) (string, time.Time, error) {
	if pattern == "" {
		pattern = DefaultSourcePattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("source pattern: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read source dir: %w", err)
	}

	var (
		newest     string
		newestDate time.Time
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := re.FindStringSubmatch(entry.Name())
		if match == nil || len(match) < 2 {
			continue
		}
		date, err := time.Parse("2006-01-02", match[1])
		if err != nil {
			continue
		}
		if newest == "" || date.After(newestDate) {
			newest = filepath.Join(dir, entry.Name())
			newestDate = date
		}
	}

	if newest == "" {
		return "", time.Time{}, fmt.Errorf("no documents matching %q in %s", pattern, dir)
	}

	return newest, newestDate, nil
}

// ReadDocument reads a source document's text. Parsing richer formats
// (PDF etc.) to text happens upstream; the pipeline consumes plain text.
func ReadDocument(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("document %s is empty", path)
	}
	return string(raw), nil
}
