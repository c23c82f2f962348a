package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sagarc03/zipstream"
)

// Formatter formats command results for output.
type Formatter interface {
	FormatHistory(w io.Writer, result zipstream.ListResult) error
	FormatPrune(w io.Writer, deleted int64, before time.Time) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct{}

// FormatHistory formats a page of downloads as a table.
func (f *HumanFormatter) FormatHistory(w io.Writer, result zipstream.ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No downloads found")
		return nil
	}

	maxNameLen := 7 // "ARCHIVE"
	for i := range result.Items {
		if len(result.Items[i].Archive) > maxNameLen {
			maxNameLen = len(result.Items[i].Archive)
		}
	}
	if maxNameLen > 40 {
		maxNameLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-19s  %-*s  %-9s  %10s  %9s  %s\n", "STARTED", maxNameLen, "ARCHIVE", "OUTCOME", "SIZE", "DURATION", "EXIT")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", 19), strings.Repeat("-", maxNameLen), strings.Repeat("-", 9),
		strings.Repeat("-", 10), strings.Repeat("-", 9), strings.Repeat("-", 4))

	var total int64
	for i := range result.Items {
		d := &result.Items[i]
		name := d.Archive
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-19s  %-*s  %-9s  %10s  %9s  %d\n",
			d.StartedAt.Local().Format("2006-01-02 15:04:05"),
			maxNameLen, name,
			d.Outcome,
			formatSize(d.BytesSent),
			d.Duration().Round(time.Millisecond),
			d.ExitCode,
		)
		total += d.BytesSent
	}

	_, _ = fmt.Fprintf(w, "\n%d download(s) (%s sent)\n", len(result.Items), formatSize(total))

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatPrune reports how many records were deleted.
func (f *HumanFormatter) FormatPrune(w io.Writer, deleted int64, before time.Time) error {
	_, _ = fmt.Fprintf(w, "Deleted %d download record(s) started before %s\n",
		deleted, before.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatHistory formats a page of downloads as JSON.
func (f *JSONFormatter) FormatHistory(w io.Writer, result zipstream.ListResult) error {
	if result.Items == nil {
		result.Items = []zipstream.Download{}
	}
	return writeJSON(w, result)
}

// FormatPrune formats the prune result as JSON.
func (f *JSONFormatter) FormatPrune(w io.Writer, deleted int64, before time.Time) error {
	output := struct {
		Deleted int64     `json:"deleted"`
		Before  time.Time `json:"before"`
	}{
		Deleted: deleted,
		Before:  before.UTC(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
