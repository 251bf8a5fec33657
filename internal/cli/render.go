package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/adriangreen/tasklog/internal/config"
	"github.com/adriangreen/tasklog/internal/tasklog"
	"github.com/charmbracelet/lipgloss"
)

// styles holds the lipgloss styles for one output stream
type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// newStyles binds the theme colors to a renderer for w, so that output
// redirected to a file or pipe carries no escape codes
func newStyles(w io.Writer, theme config.ThemeConfig) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(theme.PrimaryColor)),
		muted:   r.NewStyle().Foreground(lipgloss.Color(theme.MutedColor)),
		success: r.NewStyle().Foreground(lipgloss.Color(theme.SuccessColor)),
		warning: r.NewStyle().Foreground(lipgloss.Color(theme.WarningColor)),
		err:     r.NewStyle().Foreground(lipgloss.Color(theme.ErrorColor)),
	}
}

// statusMark returns the checkbox drawn in front of a task
func statusMark(status tasklog.Status) string {
	switch status {
	case tasklog.StatusCompleted:
		return "[x]"
	case tasklog.StatusInProgress:
		return "[~]"
	case tasklog.StatusIcebox:
		return "[-]"
	case tasklog.StatusPending:
		return "[ ]"
	default:
		return "[?]"
	}
}

func (s styles) mark(status tasklog.Status) string {
	m := statusMark(status)
	switch status {
	case tasklog.StatusCompleted:
		return s.success.Render(m)
	case tasklog.StatusInProgress:
		return s.warning.Render(m)
	case tasklog.StatusIcebox, tasklog.StatusPending:
		return s.muted.Render(m)
	default:
		return s.err.Render(m)
	}
}

// renderRecord writes a log as an indented checklist. Indentation comes from
// depth alone, the flat list carries no other nesting.
func renderRecord(w io.Writer, s styles, rec *tasklog.LogRecord) {
	title := rec.Date
	if title == "" {
		title = "(undated)"
	}
	fmt.Fprintln(w, s.title.Render(title))

	if len(rec.Tasks) == 0 {
		fmt.Fprintln(w, s.muted.Render("  no tasks"))
	}
	for _, task := range rec.Tasks {
		name := task.Name
		if name == "" {
			name = s.muted.Render("(untitled)")
		}
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", task.Depth+1), s.mark(task.Status), name)
		if task.Percent > 0 {
			line += s.muted.Render(fmt.Sprintf(" %g%%", task.Percent))
		}
		fmt.Fprintln(w, line)
	}

	if rec.Memo != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, s.muted.Render(rec.Memo))
	}
}

// renderReport writes the validation warnings of a report, if any
func renderReport(w io.Writer, s styles, report tasklog.Report) {
	if report.Malformed > 0 {
		fmt.Fprintln(w, s.warning.Render(fmt.Sprintf("dropped %d malformed entries", report.Malformed)))
	}
	for _, warning := range report.Warnings {
		fmt.Fprintln(w, s.warning.Render(warning.String()))
	}
}

func writeJSON(w io.Writer, v any, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
