package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"leadrelay/internal/models"
)

// ParseDelimited parses header-first delimited text into raw rows. Short rows
// are padded with empty values and cells past the header are ignored.
func ParseDelimited(text string, comma rune) ([]models.RawRow, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedSource)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformedSource, err)
	}

	labels := cleanHeader(header)

	var rows []models.RawRow

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedSource, err)
		}

		line, _ := r.FieldPos(0)
		rows = append(rows, buildRow(labels, record, line))
	}

	return rows, nil
}

// ParseXLSX reads the first sheet of a workbook. The first row is the header.
func ParseXLSX(data []byte) ([]models.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %w", ErrMalformedSource, err)
	}

	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedSource)
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %s: %w", ErrMalformedSource, sheets[0], err)
	}

	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrMalformedSource)
	}

	labels := cleanHeader(cells[0])
	rows := make([]models.RawRow, 0, len(cells)-1)

	for i, record := range cells[1:] {
		if isBlank(record) {
			continue
		}

		rows = append(rows, buildRow(labels, record, i+2))
	}

	return rows, nil
}

func cleanHeader(header []string) []string {
	labels := make([]string, len(header))
	for i, h := range header {
		labels[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	return labels
}

func buildRow(labels, record []string, line int) models.RawRow {
	row := models.RawRow{Line: line, Columns: make([]models.Column, len(labels))}

	for i, label := range labels {
		value := ""
		if i < len(record) {
			value = record[i]
		}

		row.Columns[i] = models.Column{Label: label, Value: value}
	}

	return row
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
