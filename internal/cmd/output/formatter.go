// Package output provides formatters for command output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/comicmap/internal/cmd/table"
	"github.com/agentstation/comicmap/pkg/errors"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatWide represents wide table output format.
	FormatWide Format = "wide"
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// JSONFormatter outputs JSON format. URLs are written without HTML escaping.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// TableFormatter outputs table format.
type TableFormatter struct{}

// Format outputs table.Data as a table and single structs as a
// property/value table. Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case table.Data:
		return f.formatTable(w, v)
	case *table.Data:
		return f.formatTable(w, *v)
	default:
		if rv := reflect.Indirect(reflect.ValueOf(data)); rv.Kind() == reflect.Struct {
			return f.formatTable(w, structToTableData(rv))
		}
		return (&JSONFormatter{Indent: "  "}).Format(w, data)
	}
}

var alignments = map[table.Align]tw.Align{
	table.AlignLeft:   tw.AlignLeft,
	table.AlignCenter: tw.AlignCenter,
	table.AlignRight:  tw.AlignRight,
}

func (f *TableFormatter) formatTable(w io.Writer, data table.Data) error {
	var cfg tablewriter.Config
	if len(data.ColumnAlignment) > 0 {
		perColumn := make([]tw.Align, len(data.ColumnAlignment))
		for i, a := range data.ColumnAlignment {
			align, ok := alignments[a]
			if !ok {
				align = tw.Skip
			}
			perColumn[i] = align
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: perColumn}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: perColumn}
	}

	t := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(data.Headers) > 0 {
		t.Header(cells(data.Headers)...)
	}
	for _, row := range data.Rows {
		if err := t.Append(cells(row)...); err != nil {
			return err
		}
	}
	return t.Render()
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}

// DetectFormat auto-detects format based on terminal and environment.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}

	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(s))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	default:
		return "", &errors.ValidationError{Field: "format", Value: s, Message: "must be one of: table, json, yaml, wide"}
	}
}

// structToTableData lays a struct out as Property/Value rows, naming each
// property after its json tag ("built_by" becomes "Built By").
func structToTableData(v reflect.Value) table.Data {
	caser := cases.Title(language.English)
	data := table.Data{Headers: []string{"Property", "Value"}}

	for _, field := range reflect.VisibleFields(v.Type()) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		name := field.Name
		if tag, _, _ := strings.Cut(field.Tag.Get("json"), ","); tag != "" && tag != "-" {
			name = caser.String(strings.ReplaceAll(tag, "_", " "))
		}
		data.Rows = append(data.Rows, []string{name, fmt.Sprint(v.FieldByIndex(field.Index).Interface())})
	}
	return data
}
