package catalogimport

import (
	"fmt"
	"strings"
)

// maxReportedErrors caps the row errors kept in a report
const maxReportedErrors = 100

// RowError is a problem found on one line of the dataset
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column '%s': %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ValidationErrors is returned when rows fail validation; nothing is loaded
type ValidationErrors struct {
	Errors []RowError
	Total  int
}

func (e *ValidationErrors) add(re RowError) {
	e.Total++
	if len(e.Errors) < maxReportedErrors {
		e.Errors = append(e.Errors, re)
	}
}

func (e *ValidationErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset has %d invalid rows", e.Total)
	for i, re := range e.Errors {
		if i == 5 {
			fmt.Fprintf(&b, "; ...")
			break
		}
		b.WriteString("; ")
		b.WriteString(re.Error())
	}
	return b.String()
}
