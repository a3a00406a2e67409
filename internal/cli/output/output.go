// Package output renders command results for the canelevation CLI.
//
// Supported formats:
//   - table: aligned key/value or column tables (default)
//   - json: indented JSON
//   - yaml: YAML
//   - quiet: only the path or id of what was written
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatQuiet Format = "quiet"
)

// ParseFormat parses a format string. Unknown values fall back to table.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "quiet", "q":
		return FormatQuiet
	default:
		return FormatTable
	}
}

// Writer handles formatted output based on the configured format.
type Writer struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewWriter creates a writer targeting stdout and stderr.
func NewWriter(format Format) *Writer {
	return &Writer{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// WithOutput sets the output writer.
func (w *Writer) WithOutput(out io.Writer) *Writer {
	w.out = out
	return w
}

// WithError sets the error writer.
func (w *Writer) WithError(err io.Writer) *Writer {
	w.err = err
	return w
}

// Format returns the current format.
func (w *Writer) Format() Format {
	return w.format
}

// Write outputs data according to the configured format.
func (w *Writer) Write(data any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w.out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	case FormatQuiet:
		return w.writeQuiet(data)
	default:
		return w.writeTable(data)
	}
}

func (w *Writer) writeQuiet(data any) error {
	switch v := data.(type) {
	case Identifiable:
		_, err := fmt.Fprintln(w.out, v.ID())
		return err
	case string:
		_, err := fmt.Fprintln(w.out, v)
		return err
	default:
		return nil
	}
}

func (w *Writer) writeTable(data any) error {
	switch v := data.(type) {
	case Tabular:
		return w.renderTable(v.TableData())
	case string:
		_, err := fmt.Fprintln(w.out, v)
		return err
	default:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
}

func (w *Writer) renderTable(t *Table) error {
	if t == nil || (len(t.Headers) == 0 && len(t.Rows) == 0) {
		return nil
	}

	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		upper := make([]string, len(t.Headers))
		for i, h := range t.Headers {
			upper[i] = strings.ToUpper(h)
		}
		fmt.Fprintln(tw, strings.Join(upper, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Printf writes formatted output.
func (w *Writer) Printf(format string, a ...any) {
	fmt.Fprintf(w.out, format, a...)
}

// Success writes a success line unless the format is machine-readable.
func (w *Writer) Success(message string) {
	if w.format != FormatTable {
		return
	}
	fmt.Fprintf(w.out, "✓ %s\n", message)
}

// Warn writes a warning to the error stream.
func (w *Writer) Warn(message string) {
	fmt.Fprintf(w.err, "⚠ %s\n", message)
}

// Identifiable is implemented by results that have a short identity for
// quiet output.
type Identifiable interface {
	ID() string
}

// Tabular is implemented by results that can be rendered as a table.
type Tabular interface {
	TableData() *Table
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a new table with headers.
func NewTable(headers ...string) *Table {
	return &Table{
		Headers: headers,
		Rows:    make([][]string, 0),
	}
}

// NewKeyValueTable creates a headerless two-column table.
func NewKeyValueTable() *Table {
	return &Table{Rows: make([][]string, 0)}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// AddPair adds a key/value row, skipping empty values.
func (t *Table) AddPair(key, value string) *Table {
	if value == "" {
		return t
	}
	return t.AddRow(key+":", value)
}

// TableData implements Tabular for Table.
func (t *Table) TableData() *Table {
	return t
}
