// Package output formats CLI results as text tables, JSON, or
// markdown.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat converts a string to Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Formatter handles output formatting.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// NewFormatter creates a formatter writing to stdout, or to path when
// it is non-empty.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	var writer io.Writer = os.Stdout
	var f *os.File
	if path != "" {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return nil, err
		}
		writer = f
		colored = false
	}
	return &Formatter{format: format, writer: writer, file: f, colored: colored}, nil
}

// Close releases the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer { return f.writer }

// Format returns the active format.
func (f *Formatter) Format() Format { return f.format }

// Colored reports whether color output is enabled.
func (f *Formatter) Colored() bool { return f.colored }

// JSON writes data as indented JSON.
func (f *Formatter) JSON(data any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Table renders a header+rows table in the active format.
func (f *Formatter) Table(title string, headers []string, rows [][]string) error {
	switch f.format {
	case FormatMarkdown:
		return f.markdownTable(title, headers, rows)
	default:
		return f.textTable(title, headers, rows)
	}
}

func (f *Formatter) textTable(title string, headers []string, rows [][]string) error {
	if title != "" {
		if f.colored {
			color.New(color.Bold).Fprintln(f.writer, title)
		} else {
			fmt.Fprintln(f.writer, title)
		}
		fmt.Fprintln(f.writer, strings.Repeat("=", len(title)))
		fmt.Fprintln(f.writer)
	}

	table := tablewriter.NewTable(f.writer,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Fprintln(f.writer)
	return nil
}

func (f *Formatter) markdownTable(title string, headers []string, rows [][]string) error {
	if title != "" {
		fmt.Fprintf(f.writer, "## %s\n\n", title)
	}
	fmt.Fprintln(f.writer, "| "+strings.Join(headers, " | ")+" |")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintln(f.writer, "| "+strings.Join(seps, " | ")+" |")
	for _, row := range rows {
		fmt.Fprintln(f.writer, "| "+strings.Join(row, " | ")+" |")
	}
	fmt.Fprintln(f.writer)
	return nil
}

// Success prints a green status line when colored.
func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.Green(format, args...)
		return
	}
	fmt.Fprintf(f.writer, format+"\n", args...)
}

// Warning prints a yellow status line when colored.
func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.Yellow(format, args...)
		return
	}
	fmt.Fprintf(f.writer, format+"\n", args...)
}
