// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cliio provides output formatting for CLI commands (text, table, CSV, JSON, markdown).
package cliio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
)

// Format represents the output format for CLI commands.
type Format string

const (
	// FormatText is a labeled plain-text layout.
	FormatText Format = "text"
	// FormatTable is the aligned table output format.
	FormatTable Format = "table"
	// FormatCSV is the CSV output format.
	FormatCSV Format = "csv"
	// FormatJSON is the JSON output format.
	FormatJSON Format = "json"
	// FormatMarkdown is markdown rendered for the terminal.
	FormatMarkdown Format = "markdown"
)

// AllFormats returns all Formats in display order.
func AllFormats() []Format {
	return []Format{FormatText, FormatTable, FormatCSV, FormatJSON, FormatMarkdown}
}

// ParseFormat parses a string into a Format, returning an error for unknown formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q, must be one of: text, table, csv, json, markdown", s)
	}
}

// WriteTable writes tabular data to the writer using tabwriter for aligned columns.
func WriteTable(writer io.Writer, headers []string, rows [][]string) error {
	tw := newTabWriter(writer)
	if err := writeTabRows(tw, headers, rows); err != nil {
		return err
	}
	return tw.Flush()
}

// WriteTableWithTotals writes a table followed by a blank line and a totals row,
// all through the same tabwriter so columns align between data and totals.
func WriteTableWithTotals(writer io.Writer, headers []string, rows [][]string, totalsRow []string) error {
	tw := newTabWriter(writer)
	if err := writeTabRows(tw, headers, rows); err != nil {
		return err
	}
	// Blank separator line with tabs to preserve column alignment.
	if _, err := fmt.Fprintln(tw, strings.Join(make([]string, len(headers)), "\t")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(tw, strings.Join(totalsRow, "\t")); err != nil {
		return err
	}
	return tw.Flush()
}

// WriteLabeled writes label/value pairs aligned on the value column.
//
// An empty pair writes a blank line, which starts a new alignment block.
func WriteLabeled(writer io.Writer, pairs [][2]string) error {
	tw := newTabWriter(writer)
	for _, pair := range pairs {
		if pair[0] == "" && pair[1] == "" {
			if _, err := fmt.Fprintln(tw); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", pair[0], pair[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteCSVRecords writes CSV records to the writer.
func WriteCSVRecords(writer io.Writer, records [][]string) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(records); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSON writes objects as JSON with newlines between each object.
func WriteJSON[O any](writer io.Writer, objects ...O) error {
	for _, object := range objects {
		data, err := json.Marshal(object)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return nil
}

// MarkdownTable returns a GitHub-flavored markdown table.
func MarkdownTable(headers []string, rows [][]string) string {
	var builder strings.Builder
	builder.WriteString("| " + strings.Join(escapeMarkdownCells(headers), " | ") + " |\n")
	separators := make([]string, len(headers))
	for i := range separators {
		separators[i] = "---"
	}
	builder.WriteString("| " + strings.Join(separators, " | ") + " |\n")
	for _, row := range rows {
		builder.WriteString("| " + strings.Join(escapeMarkdownCells(row), " | ") + " |\n")
	}
	return builder.String()
}

// WriteMarkdown renders markdown for the terminal and writes it to the writer.
func WriteMarkdown(writer io.Writer, markdown string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(writer, rendered)
	return err
}

// *** PRIVATE ***

func newTabWriter(writer io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
}

func writeTabRows(tw *tabwriter.Writer, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func escapeMarkdownCells(cells []string) []string {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = strings.ReplaceAll(cell, "|", `\|`)
	}
	return escaped
}
