// Package formatter renders run summaries and listings as Markdown tables
// aligned by display width.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// AlignTable renders header and rows as a Markdown table. Columns are padded
// by display width so full-width text lines up with ASCII.
func AlignTable(header []string, rows [][]string) []string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	// 1. Calculate max widths (using display width)
	colWidths := make([]int, colCount)

	for _, row := range append([][]string{header}, rows...) {
		for i := 0; i < len(row); i++ {
			if width := runewidth.StringWidth(cleanCell(row[i])); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	// 2. Reconstruct lines
	result := make([]string, 0, len(rows)+2)
	result = append(result, renderRow(header, colWidths))

	var sep strings.Builder

	sep.WriteString("|")

	for _, w := range colWidths {
		sep.WriteString(" ")
		sep.WriteString(strings.Repeat("-", w))
		sep.WriteString(" |")
	}

	result = append(result, sep.String())

	for _, row := range rows {
		result = append(result, renderRow(row, colWidths))
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j := range colWidths {
		sb.WriteString(" ")

		content := ""
		if j < len(row) {
			content = cleanCell(row[j])
		}

		sb.WriteString(content)

		// Pad with spaces based on display width
		if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

// cleanCell keeps a cell on one line and escapes pipes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}
