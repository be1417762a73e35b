package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SkippedLine is one entry of the skipped users report
type SkippedLine struct {
	Username string
	Reason   string
}

// WriteFileAtomic writes r to path through a temporary file in the same
// directory and renames it into place. Missing parent directories are created.
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, perm); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// WriteLines writes one item per line, each terminated by a newline.
// An empty list produces an empty file.
func WriteLines(path string, items []string) error {
	var buf bytes.Buffer
	for _, item := range items {
		buf.WriteString(item)
		buf.WriteByte('\n')
	}
	return WriteFileAtomic(path, &buf, 0644)
}

// WriteSkipped writes "username: reason" lines
func WriteSkipped(path string, skipped []SkippedLine) error {
	lines := make([]string, 0, len(skipped))
	for _, s := range skipped {
		reason := strings.Join(strings.Fields(s.Reason), " ")
		lines = append(lines, fmt.Sprintf("%s: %s", s.Username, reason))
	}
	return WriteLines(path, lines)
}

// WriteCSV writes a header row followed by rows
func WriteCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to encode csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode csv rows: %w", err)
	}
	return WriteFileAtomic(path, &buf, 0644)
}

// ProfileHeader is the header row of the profiles report
var ProfileHeader = []string{"username", "full_name", "is_private", "account_type", "is_verified"}

// CSVRecord is a value that renders itself as one CSV row
type CSVRecord interface {
	CSVRow() []string
}

// WriteProfilesCSV writes ProfileHeader followed by one row per record
func WriteProfilesCSV[R CSVRecord](path string, records []R) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.CSVRow())
	}
	return WriteCSV(path, ProfileHeader, rows)
}

// ReadLines reads a username list: surrounding whitespace is trimmed, blank
// lines are dropped and a leading @ is removed
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "@")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}
