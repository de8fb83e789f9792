// Package export renders task listings as JSON, YAML, CSV or PDF.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"todo/internal/service"
)

// Format is an export format name.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CSV  Format = "csv"
	PDF  Format = "pdf"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{JSON, YAML, CSV, PDF}
}

// ParseFormat parses a format name (case-insensitive). "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "csv":
		return CSV, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("unknown export format: %s", s)
	}
}

// Row is one exported task. Number is the 1-based listing number.
type Row struct {
	Number    int    `json:"number" yaml:"number"`
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
	DueDate   string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// Rows converts listing entries to export rows.
func Rows(entries []service.Entry) []Row {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Number:    e.Index + 1,
			ID:        e.Task.ID,
			Title:     e.Task.Title,
			Completed: e.Task.Completed,
		}
		if e.Task.DueDate != nil {
			rows[i].DueDate = e.Task.DueDate.String()
		}
	}
	return rows
}

// Write renders entries to w in the given format.
func Write(w io.Writer, format Format, entries []service.Entry) error {
	rows := Rows(entries)
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case CSV:
		return writeCSV(w, rows)
	case PDF:
		return writePDF(w, rows)
	default:
		return fmt.Errorf("unknown export format: %s", format)
	}
}

func writeCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"number", "id", "title", "completed", "due_date"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{strconv.Itoa(r.Number), r.ID, r.Title, strconv.FormatBool(r.Completed), r.DueDate}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, rows []Row) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate titles so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "To-Do List")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	if len(rows) == 0 {
		pdf.Cell(40, 8, "No tasks")
	}
	for _, r := range rows {
		mark := "[ ]"
		if r.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%3d. %s %s", r.Number, mark, tr(r.Title))
		if r.DueDate != "" {
			line += "  (due " + r.DueDate + ")"
		}
		pdf.MultiCell(0, 6, line, "0", "L", false)
	}

	return pdf.Output(w)
}
