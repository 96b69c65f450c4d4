package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/gia/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintStatus prints detailed task status.
func (t *TablePrinter) PrintStatus(task model.Task) error {
	fmt.Fprintf(t.writer, "ID:          %s\n", task.ID)
	fmt.Fprintf(t.writer, "Description: %s\n", task.Description)
	fmt.Fprintf(t.writer, "Status:      %s\n", task.Status)
	fmt.Fprintf(t.writer, "Created:     %s\n", FormatTimestamp(task.CreatedAt))
	fmt.Fprintf(t.writer, "Updated:     %s\n", FormatTimestamp(task.UpdatedAt))

	if task.Result != "" {
		fmt.Fprintf(t.writer, "Result:      %s\n", task.Result)
	}

	if len(task.Steps) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STEP\tTYPE\tSTATUS\tOUTPUT")
	for _, s := range task.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Type, s.Status, s.Output)
	}

	return nil
}

// PrintWorkflow prints the workflow stages in a table format.
func (t *TablePrinter) PrintWorkflow(w model.Workflow) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STAGE\tNAME\tSTATUS\tDEPENDS ON\tDESCRIPTION")
	for _, n := range w.Nodes {
		deps := "-"
		if len(n.Dependencies) > 0 {
			deps = strings.Join(n.Dependencies, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", n.ID, n.Name, n.Status, deps, n.Description)
	}

	return nil
}

// PrintMessage prints a simple text line.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
