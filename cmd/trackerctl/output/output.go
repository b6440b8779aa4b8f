// Package output renders trackerctl results in the terminal
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"readtracker/internal/models"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

const barWidth = 20

// Printer writes styled lines to w
type Printer struct {
	w io.Writer
}

// New returns a printer writing to w
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(successStyle.Render("✓ ") + fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(warningStyle.Render("⚠ ") + fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(errorStyle.Render("✗ ") + fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(infoStyle.Render("ℹ ") + fmt.Sprintf(format, args...))
}

// Muted prints a muted message
func (p *Printer) Muted(format string, args ...interface{}) {
	p.line(mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func (p *Printer) Section(title string) {
	p.line("")
	p.line(primaryStyle.Render(title))
	p.line(mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// Field prints an aligned "label: value" line
func (p *Printer) Field(label string, value interface{}) {
	p.line(fmt.Sprintf("%s %v", mutedStyle.Width(26).Render(label+":"), value))
}

// Table prints rows under headers with rounded borders
func (p *Printer) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	p.line(t.String())
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

// Bar renders fraction (0..1) as a fixed-width progress bar
func Bar(fraction float64) string {
	filled := int(fraction*barWidth + 0.5)
	filled = max(0, min(filled, barWidth))
	return successStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

// StatusIcon returns a colored icon for a book status
func StatusIcon(status models.Status) string {
	switch status {
	case models.StatusCompleted:
		return successStyle.Render("✓")
	case models.StatusReading:
		return infoStyle.Render("◉")
	case models.StatusWishlist:
		return warningStyle.Render("○")
	case models.StatusAbandoned:
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}
