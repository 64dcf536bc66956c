package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
)

const dialogWidth = 64

// buttonLabels name the issue answers on the dialog buttons.
var buttonLabels = map[operation.Decision]string{
	operation.Retry:        "Retry",
	operation.Overwrite:    "Overwrite",
	operation.OverwriteAll: "Overwrite all",
	operation.Skip:         "Skip",
	operation.SkipAll:      "Skip all",
	operation.Abort:        "Abort",
}

// shortcuts answer the dialog with a single key.
var shortcuts = map[string]operation.Decision{
	"r": operation.Retry,
	"o": operation.Overwrite,
	"O": operation.OverwriteAll,
	"s": operation.Skip,
	"S": operation.SkipAll,
	"a": operation.Abort,
}

// issueDialog asks the operator to answer one issue. The answer is sent on
// reply exactly once.
type issueDialog struct {
	issue  operation.Issue
	reply  chan<- operation.Decision
	cursor int
}

func (d *issueDialog) move(delta int) {
	n := len(d.issue.Options)
	if n == 0 {
		return
	}
	d.cursor = (d.cursor + delta + n) % n
}

func (d *issueDialog) selected() operation.Decision {
	if len(d.issue.Options) == 0 {
		return operation.Abort
	}
	return d.issue.Options[d.cursor]
}

// answer sends dec if the issue offers it and reports whether it did.
func (d *issueDialog) answer(dec operation.Decision) bool {
	if !d.issue.Offers(dec) {
		return false
	}
	d.reply <- dec
	return true
}

func (d *issueDialog) view() string {
	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(d.issue.Title))
	b.WriteString("\n\n")
	b.WriteString(dialogTextStyle.Render(d.issue.Text))
	b.WriteString("\n\n")

	buttons := make([]string, 0, len(d.issue.Options))
	for i, opt := range d.issue.Options {
		style := inactiveButtonStyle
		if i == d.cursor {
			style = activeButtonStyle
		}
		buttons = append(buttons, style.Render(buttonLabels[opt]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	b.WriteString("\n\n")
	b.WriteString(keyHint("←/→", "choose", "enter", "confirm", "esc", "abort"))

	return dialogBoxStyle.Render(b.String())
}
