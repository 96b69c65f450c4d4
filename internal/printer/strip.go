package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/slok/gia/internal/model"
)

var (
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
)

var (
	nodeBaseStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	nodeStyles    = map[model.NodeStatus]lipgloss.Style{
		model.NodeStatusIdle:      nodeBaseStyle.BorderForeground(dim).Foreground(dim),
		model.NodeStatusActive:    nodeBaseStyle.BorderForeground(yellow).Foreground(yellow).Bold(true),
		model.NodeStatusCompleted: nodeBaseStyle.BorderForeground(green).Foreground(green),
		model.NodeStatusError:     nodeBaseStyle.BorderForeground(red).Foreground(red),
	}
	arrowStyle = lipgloss.NewStyle().Foreground(dim).PaddingTop(1)
)

// NodeIcon returns the icon used for a workflow stage status.
func NodeIcon(s model.NodeStatus) string {
	switch s {
	case model.NodeStatusCompleted:
		return "✓"
	case model.NodeStatusActive:
		return "▶"
	case model.NodeStatusError:
		return "✗"
	default:
		return "○"
	}
}

// TaskIcon returns the icon used for a task status.
func TaskIcon(s model.TaskStatus) string {
	switch s {
	case model.TaskStatusCompleted:
		return "✓"
	case model.TaskStatusProcessing:
		return "▶"
	case model.TaskStatusFailed:
		return "✗"
	default:
		return "◷"
	}
}

// StripPrinter renders the workflow stages as a horizontal strip of boxes joined by arrows.
type StripPrinter struct {
	writer io.Writer
}

// NewStripPrinter creates a new strip printer. When color is false the output is plain text.
func NewStripPrinter(w io.Writer, color bool) *StripPrinter {
	if !color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return &StripPrinter{writer: w}
}

// Render returns the strip for the workflow.
func (s *StripPrinter) Render(w model.Workflow) string {
	if len(w.Nodes) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(w.Nodes)*2-1)
	for i, n := range w.Nodes {
		if i > 0 {
			blocks = append(blocks, arrowStyle.Render("→"))
		}
		style, ok := nodeStyles[n.Status]
		if !ok {
			style = nodeStyles[model.NodeStatusIdle]
		}
		blocks = append(blocks, style.Render(NodeIcon(n.Status)+" "+n.Name))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// PrintStrip prints the workflow strip followed by the task progress line.
func (s *StripPrinter) PrintStrip(w model.Workflow, task model.Task) error {
	var b strings.Builder
	b.WriteString(s.Render(w))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s [%s] %s\n", TaskIcon(task.Status), FormatClock(task.UpdatedAt), task.Status, task.Description)

	_, err := io.WriteString(s.writer, b.String())
	return err
}
