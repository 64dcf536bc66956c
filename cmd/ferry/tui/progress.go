package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
)

// progressView renders the observer of one operation.
type progressView struct {
	ctl     operation.Controller
	snap    operation.Snapshot
	total   progress.Model
	file    progress.Model
	spinner spinner.Model
	opened  time.Time
}

func newProgressView(ctl operation.Controller, snap operation.Snapshot, now time.Time) *progressView {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return &progressView{
		ctl:     ctl,
		snap:    snap,
		total:   progress.New(progress.WithDefaultGradient()),
		file:    progress.New(progress.WithSolidFill(string(accentColor))),
		spinner: s,
		opened:  now,
	}
}

func (v *progressView) resize(width int) {
	barWidth := max(width-16, 10)
	v.total.Width = barWidth
	v.file.Width = barWidth
}

func (v *progressView) tick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return cmd
}

// togglePause pauses a running operation or resumes a paused one.
func (v *progressView) togglePause() {
	switch v.ctl.State() {
	case operation.Running:
		v.ctl.Pause()
	case operation.Paused:
		v.ctl.Resume()
	}
}

func (v *progressView) view(width int, now time.Time) string {
	var b strings.Builder
	contentWidth := max(width-4, 40)

	title := titleStyle.Render(v.snap.Title)
	if v.ctl.State() == operation.Paused {
		title += "  " + pausedStyle.Render("paused")
	}
	hint := keyHint("p", "pause", "a", "abort")
	spacing := max(contentWidth-lipgloss.Width(title)-lipgloss.Width(hint), 1)
	b.WriteString(title + strings.Repeat(" ", spacing) + hint)
	b.WriteString("\n")
	b.WriteString(renderDivider(contentWidth))
	b.WriteString("\n")

	row := func(label, value string) {
		if label == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(truncatePath(value, contentWidth-12)))
		b.WriteString("\n")
	}
	row(v.snap.Row1Label, v.snap.Row1Value)
	row(v.snap.Row2Label, v.snap.Row2Value)
	b.WriteString("\n")

	if v.snap.Undetermined {
		b.WriteString(v.spinner.View() + " " + mutedTextStyle.Render("working"))
		b.WriteString("\n")
	} else {
		if v.snap.Progress1Label != "" {
			b.WriteString(labelStyle.Render(v.snap.Progress1Label))
			b.WriteString(v.total.ViewAs(v.snap.Progress1 / 100))
			b.WriteString("\n")
		}
		if v.snap.Progress2Label != "" {
			b.WriteString(labelStyle.Render(v.snap.Progress2Label))
			b.WriteString(v.file.ViewAs(v.snap.Progress2 / 100))
			b.WriteString("\n")
		}
	}

	b.WriteString(mutedTextStyle.Render("Elapsed " + formatDuration(now.Sub(v.opened))))
	return outerBoxStyle.Width(contentWidth + 2).Render(b.String())
}

// formatDuration formats a duration as M:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
