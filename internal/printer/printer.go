package printer

import "github.com/slok/gia/internal/model"

// Printer knows how to print task and workflow information in different formats.
type Printer interface {
	PrintStatus(task model.Task) error
	PrintWorkflow(w model.Workflow) error
}
