// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"todo/internal/service"
)

const (
	// MarkDone and MarkOpen prefix completed and open tasks.
	MarkDone = "✓"
	MarkOpen = "✗"

	// EmptyMessage is printed when a listing has no tasks.
	EmptyMessage = "no tasks found"
)

// Printer writes task listings to w. Styling is applied only when w is a
// color-capable terminal; anything else (files, pipes, buffers) gets plain text.
type Printer struct {
	w    io.Writer
	done lipgloss.Style
	open lipgloss.Style
	due  lipgloss.Style
}

// NewPrinter creates a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:    w,
		done: r.NewStyle().Foreground(lipgloss.Color("2")).Faint(true),
		open: r.NewStyle().Foreground(lipgloss.Color("1")),
		due:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Task prints one listing line.
// Format: "{N:>4}  {MARK} {TITLE}[  (due YYYY-MM-DD)]\n" with N 1-based.
func (p *Printer) Task(e service.Entry) {
	mark := p.open.Render(MarkOpen)
	title := normalizeTitle(e.Task.Title)
	if e.Task.Completed {
		mark = p.done.Render(MarkDone)
		title = p.done.Render(title)
	}

	line := fmt.Sprintf("%4d  %s %s", e.Index+1, mark, title)
	if e.Task.DueDate != nil {
		line += "  " + p.due.Render("(due "+e.Task.DueDate.String()+")")
	}
	fmt.Fprintln(p.w, line)
}

// Tasks prints every entry, or EmptyMessage unless quiet is set.
func (p *Printer) Tasks(entries []service.Entry, quiet bool) {
	if len(entries) == 0 {
		if !quiet {
			fmt.Fprintln(p.w, EmptyMessage)
		}
		return
	}
	for _, e := range entries {
		p.Task(e)
	}
}

// normalizeTitle normalizes a task title for display.
// - Newlines are replaced with spaces
// - Tabs are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")
	return strings.ReplaceAll(title, "\t", " ")
}
