// Package output writes command results as text tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// Formatter handles output formatting (table or JSON).
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// New creates a new Formatter with the specified writer and JSON mode.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{
		Writer:   w,
		JSONMode: jsonMode,
	}
}

// Table outputs data as a formatted table or JSON array depending on mode.
// Headers define column names, rows contain the data.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.tableAsJSON(headers, rows)
	}
	return f.tableAsText(headers, rows)
}

func (f *Formatter) tableAsText(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(f.Writer, tablewriter.WithHeader(headers))
	for _, row := range rows {
		padded := make([]string, len(headers))
		copy(padded, row)
		if err := table.Append(padded); err != nil {
			return fmt.Errorf("failed to add table row: %w", err)
		}
	}
	return table.Render()
}

// tableAsJSON renders a table as a JSON array of objects.
func (f *Formatter) tableAsJSON(headers []string, rows [][]string) error {
	result := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		obj := make(map[string]string)
		for i, header := range headers {
			if i < len(row) {
				obj[header] = row[i]
			} else {
				obj[header] = ""
			}
		}
		result = append(result, obj)
	}

	return f.Print(result)
}

// Print outputs data as indented JSON, or with %v in text mode.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}

	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}

// Println writes a line of text. It is a no-op in JSON mode so that
// commands can mix status lines with a single JSON document.
func (f *Formatter) Println(a ...any) {
	if f.JSONMode {
		return
	}
	_, _ = fmt.Fprintln(f.Writer, a...)
}

// Printf writes formatted text, skipped in JSON mode.
func (f *Formatter) Printf(format string, a ...any) {
	if f.JSONMode {
		return
	}
	_, _ = fmt.Fprintf(f.Writer, format, a...)
}
