package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// rows returns the header and records shared by the tabular formats.
// Listings get one row per item, summaries one row of totals.
func rows(r *Result) ([]string, [][]string) {
	if !r.Listing() {
		header := []string{"OPERATION", "SOURCE", "TARGET", "ENTRIES", "BYTES", "COMPLETED", "SKIPPED", "ABORTED"}
		return header, [][]string{{
			string(r.Operation),
			r.Source,
			r.Target,
			strconv.FormatInt(r.Totals.Nodes, 10),
			strconv.FormatInt(r.Totals.Bytes, 10),
			strconv.FormatInt(r.Totals.Completed, 10),
			strconv.FormatInt(r.Totals.Skipped, 10),
			strconv.FormatBool(r.Aborted),
		}}
	}

	records := make([][]string, 0, len(r.Items))
	for _, it := range r.Items {
		records = append(records, []string{it.SizeHuman, it.Type, it.Path})
	}
	return []string{"SIZE", "TYPE", "PATH"}, records
}

// TSVFormatter writes tab-separated values.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, records := rows(r)
	w.WriteString(strings.Join(header, "\t"))
	w.WriteByte('\n')
	for _, rec := range records {
		w.WriteString(strings.Join(rec, "\t"))
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter writes RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, records := rows(r)
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

var _ Formatter = (*CSVFormatter)(nil)

// MarkdownFormatter writes a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, records := rows(r)
	writeMarkdownRow(w, header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(w, sep)

	for _, rec := range records {
		writeMarkdownRow(w, rec)
	}
	return nil
}

func writeMarkdownRow(w *bytes.Buffer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = escapeMarkdownPipe(c)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

var _ Formatter = (*MarkdownFormatter)(nil)
