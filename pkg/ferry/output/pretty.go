package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// PrettyFormatter renders styled terminal output with lipgloss.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if r.Listing() {
		w.WriteString(f.formatTable(r))
	}
	w.WriteString(f.formatFooter(r))
	if r.Aborted {
		w.WriteString("\n")
		w.WriteString(ErrorBox.Render(ErrorStyle.Bold(true).Render("Aborted before completion")))
	}

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(r *Result) string {
	title := TitleStyle.Render(strings.ToUpper(string(r.Operation)))
	if r.ID != "" {
		title += " " + MutedStyle.Render(shortID(r.ID))
	}
	lines := []string{title, labelled("Source:", ValueStyle.Render(r.Source))}
	if r.Target != "" {
		lines = append(lines, labelled("Target:", ValueStyle.Render(r.Target)))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(r *Result) string {
	if len(r.Items) == 0 {
		return MutedStyle.Render("  No entries found") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s  %s\n", TableHeaderStyle.Render("SIZE"), TableHeaderStyle.Render("PATH")))

	width := 8
	for _, it := range r.Items {
		width = max(width, len(it.SizeHuman))
	}

	for _, it := range r.Items {
		size := SizeStyle.Render(padLeft(it.SizeHuman, width))
		name := it.Path
		if it.Depth > 0 {
			name = it.Name
		}
		style := PathStyle
		switch it.Type {
		case TypeDir:
			style = DirStyle
			name += "/"
		case TypeLink:
			style = LinkStyle
			name += "@"
		}
		row := fmt.Sprintf("  %s  %s%s", size, strings.Repeat("  ", it.Depth), style.Render(name))
		if it.Count > 1 {
			row += " " + MutedStyle.Render(fmt.Sprintf("(%d)", it.Count-1))
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string
	switch r.Operation {
	case operation.KindSearch:
		parts = append(parts, labelled("Matches:", ValueStyle.Render(fmt.Sprint(r.Totals.Matches))))
	default:
		parts = append(parts, labelled("Entries:", ValueStyle.Render(fmt.Sprint(r.Totals.Nodes))))
	}
	parts = append(parts, labelled("Total:", SizeStyle.Render(types.FormatSize(r.Totals.Bytes))))

	if !r.Listing() {
		parts = append(parts,
			labelled("Done:", SuccessStyle.Render(fmt.Sprint(r.Totals.Completed))),
			labelled("Skipped:", skippedStyle(r.Totals.Skipped).Render(fmt.Sprint(r.Totals.Skipped))),
		)
	}
	if r.Totals.Elapsed > 0 {
		parts = append(parts, labelled("Time:", ValueStyle.Render(formatDuration(r.Totals.Elapsed))))
	}
	if r.Listing() {
		parts = append(parts, MutedStyle.Render("Use -o plain for unformatted output"))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func skippedStyle(n int64) styleRenderer {
	if n > 0 {
		return WarningStyle
	}
	return MutedStyle
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func labelled(label, value string) string {
	return LabelStyle.Render(label) + " " + value
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// formatDuration renders d for people: "350ms", "4.2s", "3m 5s", "2h 10m".
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
