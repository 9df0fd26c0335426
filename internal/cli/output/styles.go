package output

import "github.com/charmbracelet/lipgloss"

// Palette used by text mode.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"}
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#F9A825")
	colorError   = lipgloss.Color("#E53935")
	colorInfo    = lipgloss.Color("#42A5F5")
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Styles holds the lipgloss styles for text output.
type Styles struct {
	Header  lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Dataset lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  r.NewStyle().Bold(true).Foreground(colorPrimary),
		Bold:    r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Info:    r.NewStyle().Foreground(colorInfo),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Dataset: r.NewStyle().Foreground(colorPrimary),
	}
}

// plainStyles renders every style as plain text.
func plainStyles() *Styles {
	s := lipgloss.NewStyle()
	return &Styles{Header: s, Bold: s, Success: s, Warning: s, Error: s, Info: s, Muted: s, Dataset: s}
}

// statusIcons maps a status word to its text-mode marker.
var statusIcons = map[string]string{
	"success": "✓",
	"updated": "✓",
	"ok":      "✓",
	"local":   "~",
	"skipped": "-",
	"warning": "!",
	"failed":  "✗",
	"error":   "✗",
}
