// Package output renders command results for terminals, pipes, and scripts.
//
// Text mode is styled with lipgloss, markdown is used when stdout is not a
// terminal, and JSON is available for scripting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// OutputMode selects how results are rendered.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode parses a configured output format. Unknown values mean auto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	default:
		return ModeAuto
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, isTTY, mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY}
	if r.EffectiveMode() == ModeText {
		r.styles = newStyles(lipgloss.NewRenderer(out))
	} else {
		r.styles = plainStyles()
	}
	return r
}

// EffectiveMode resolves ModeAuto: text on a terminal, markdown otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the styles for the effective mode.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Println writes s and a newline to stdout.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, title string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Header.Render(title))
		return
	}
	r.Println(FormatHeader(level, title))
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(r.icon("success") + msg))
}

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render(r.icon("warning")+msg))
}

// Error writes an error to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(r.icon("error")+msg))
}

// Muted writes de-emphasised text.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// StatusLine writes "name status detail" with a status marker in text mode
// and a list item in markdown.
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.EffectiveMode() != ModeText {
		line := fmt.Sprintf("- **%s**: %s", name, status)
		if detail != "" {
			line += " (" + detail + ")"
		}
		r.Println(line)
		return
	}

	style := r.styles.Info
	switch status {
	case "success", "updated", "ok":
		style = r.styles.Success
	case "failed", "error":
		style = r.styles.Error
	case "local", "warning":
		style = r.styles.Warning
	}
	line := style.Render(r.icon(status)) + r.styles.Dataset.Render(name)
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

func (r *Renderer) icon(status string) string {
	if r.EffectiveMode() != ModeText {
		return ""
	}
	if i, ok := statusIcons[status]; ok {
		return i + " "
	}
	return "• "
}

// Table renders rows under header: a box table in text mode and a pipe
// table in markdown.
func (r *Renderer) Table(header []string, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(toRow(header))
	for _, row := range rows {
		tw.AppendRow(toRow(row))
	}
	if r.EffectiveMode() == ModeText {
		tw.Render()
		return
	}
	tw.RenderMarkdown()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
