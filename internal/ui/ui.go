// Package ui renders apb's human-facing progress and error messages on
// stderr. Machine-readable output, such as a recovered spec, goes to stdout
// through the command's writer instead.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Printer writes styled status lines.
type Printer struct {
	out io.Writer
}

// New returns a Printer writing to stderr.
func New() *Printer {
	return &Printer{out: os.Stderr}
}

// NewWithWriter returns a Printer writing to w.
func NewWithWriter(w io.Writer) *Printer {
	return &Printer{out: w}
}

// Error prints a failure message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", errorStyle.Render("error:"), msg)
}

// Warn prints a warning.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", warnStyle.Render("⚠"), msg)
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, dimStyle.Render(msg))
}

// Success prints a completion message.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", successStyle.Render("✓"), msg)
}

// ProjectCreated reports a scaffolded project.
func (p *Printer) ProjectCreated(path string) {
	p.Success("initialized APB project in " + accentStyle.Render(path))
}

// SpecIDAssigned reports a newly generated spec id.
func (p *Printer) SpecIDAssigned(id, specPath string) {
	fmt.Fprintf(p.out, "%s id %s written to %s\n", accentStyle.Render("◆"), id, specPath)
}

// Embedded reports a completed prepare run.
func (p *Printer) Embedded(dockerfile string, blobLen, lines int, changed bool) {
	if !changed {
		p.Info(fmt.Sprintf("%s already up to date (%d lines)", dockerfile, lines))
		return
	}
	fmt.Fprintf(p.out, "%s embedded spec into %s %s\n",
		successStyle.Render("✓"), dockerfile,
		dimStyle.Render(fmt.Sprintf("(%d chars, %d lines)", blobLen, lines)))
}

// Watching reports that prepare is waiting for spec changes.
func (p *Printer) Watching(specPath string) {
	p.Info(fmt.Sprintf("watching %s for changes (ctrl-c to stop)", specPath))
}
