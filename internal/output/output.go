// Package output renders command results as aligned text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter handles output formatting (table or JSON).
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// Field is one labelled value in a Fields block.
type Field struct {
	Label string
	Value string
}

// New creates a new Formatter with the specified writer and JSON mode.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{
		Writer:   w,
		JSONMode: jsonMode,
	}
}

// Table outputs data as a formatted table or, in JSON mode, an array of
// objects keyed by the snake_cased headers.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.tableAsJSON(headers, rows)
	}
	return f.tableAsText(headers, rows)
}

// tableAsText renders a table with aligned columns.
func (f *Formatter) tableAsText(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	separators := make([]string, len(headers))
	for i, h := range headers {
		separators[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(separators, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func (f *Formatter) tableAsJSON(headers []string, rows [][]string) error {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = JSONKey(h)
	}

	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(keys))
		for i, key := range keys {
			if i < len(row) {
				obj[key] = row[i]
			} else {
				obj[key] = ""
			}
		}
		result = append(result, obj)
	}

	return f.Print(result)
}

// Fields prints labelled values, one per line with the values aligned, or a
// single JSON object in JSON mode.
func (f *Formatter) Fields(fields []Field) error {
	if f.JSONMode {
		obj := make(map[string]string, len(fields))
		for _, fl := range fields {
			obj[JSONKey(fl.Label)] = fl.Value
		}
		return f.Print(obj)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 1, ' ', 0)
	for _, fl := range fields {
		if _, err := fmt.Fprintf(tw, "  %s:\t%s\n", fl.Label, fl.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// JSONKey turns a display header such as "Stop Loss" into "stop_loss".
func JSONKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// Print outputs data as formatted JSON (pretty-printed) or as a simple string representation.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}

	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}
