package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// PlainFormatter writes unstyled aligned columns for scripting. Summaries
// are written as "key: value" lines.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if !r.Listing() {
		for _, kv := range summaryFields(r) {
			fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
		}
		return tw.Flush()
	}

	if _, err := tw.Write([]byte("SIZE\tTYPE\tPATH\n")); err != nil {
		return err
	}
	for _, it := range r.Items {
		line := it.SizeHuman + "\t" + it.Type + "\t" + strings.Repeat("  ", it.Depth) + it.Path + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// summaryFields lists the labelled values of a delete, copy or move.
func summaryFields(r *Result) [][2]string {
	fields := [][2]string{
		{"operation", string(r.Operation)},
		{"source", r.Source},
	}
	if r.Target != "" {
		fields = append(fields, [2]string{"target", r.Target})
	}
	fields = append(fields,
		[2]string{"entries", fmt.Sprint(r.Totals.Nodes)},
		[2]string{"size", types.FormatSize(r.Totals.Bytes)},
		[2]string{"completed", fmt.Sprint(r.Totals.Completed)},
		[2]string{"skipped", fmt.Sprint(r.Totals.Skipped)},
	)
	if r.Totals.Elapsed > 0 {
		fields = append(fields, [2]string{"elapsed", formatDuration(r.Totals.Elapsed)})
	}
	if r.Aborted {
		fields = append(fields, [2]string{"status", "aborted"})
	} else {
		fields = append(fields, [2]string{"status", "finished"})
	}
	return fields
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
