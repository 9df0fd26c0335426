package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SplitLines splits text on newlines, strips a trailing carriage return from
// each line, and drops the empty line left by a final newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ReadLines reads a text file into lines.
func ReadLines(path string) ([]string, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from config
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return SplitLines(string(content)), nil
}

// ReadFile reads a delimited file into a Dataset.
func ReadFile(path, delim string, hasHeader bool) (*Dataset, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return Parse(lines, delim, hasHeader), nil
}

// WriteLines writes each line followed by a newline. The file is written to a
// temporary sibling and renamed into place, so readers never see a partial
// file. The parent directory is created if needed.
func WriteLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // output tables are meant to be shared
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
