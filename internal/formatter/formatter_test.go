package formatter

import (
	"errors"
	"strings"
	"testing"

	"leadrelay/internal/models"
	"leadrelay/internal/pipeline"
)

func TestAlignTable(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{
			name:   "Basic table formatting",
			header: []string{"Header 1", "Header 2"},
			rows:   [][]string{{"val 1", "val 2"}},
			expected: `
| Header 1 | Header 2 |
| -------- | -------- |
| val 1    | val 2    |
`,
		},
		{
			name:   "Short columns get three dashes",
			header: []string{"H1", "H2"},
			rows:   [][]string{{"v1", "v2"}},
			expected: `
| H1  | H2  |
| --- | --- |
| v1  | v2  |
`,
		},
		{
			name:   "Mixed CJK and ASCII",
			header: []string{"Brand", "Shop"},
			rows:   [][]string{{"Nagomi", "なごみ店舗未設定"}, {"DJH", "Shibuya Branch"}},
			// "なごみ店舗未設定" is 8 full-width runes, 16 columns wide.
			expected: `
| Brand  | Shop             |
| ------ | ---------------- |
| Nagomi | なごみ店舗未設定 |
| DJH    | Shibuya Branch   |
`,
		},
		{
			name:   "Ragged rows and pipes",
			header: []string{"A"},
			rows:   [][]string{{"x|y", "extra"}},
			expected: `
| A    |       |
| ---- | ----- |
| x\|y | extra |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(AlignTable(tt.header, tt.rows), "\n")
			if got != strings.TrimSpace(tt.expected) {
				t.Errorf("AlignTable() = \n%v\nwant \n%v", got, strings.TrimSpace(tt.expected))
			}
		})
	}
}

func TestRenderSummary(t *testing.T) {
	reports := []pipeline.Report{
		{Vendor: "townlife", Brand: "DJH", Rows: 2, Filtered: 1, Delivered: 1},
		{Vendor: "suumo", Brand: "なごみ", Err: errors.New("source unavailable")},
	}

	got := RenderSummary(reports)
	lines := strings.Split(strings.TrimSpace(got), "\n")

	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d:\n%s", len(lines), got)
	}

	if !strings.HasPrefix(lines[0], "| Vendor") {
		t.Errorf("Unexpected header: %s", lines[0])
	}

	if !strings.Contains(lines[3], "source unavailable") {
		t.Errorf("Expected error column, got %s", lines[3])
	}

	if !strings.HasPrefix(lines[4], "| total") || !strings.Contains(lines[4], "| 2 ") {
		t.Errorf("Unexpected total row: %s", lines[4])
	}
}

func TestRenderDirectory(t *testing.T) {
	got := RenderDirectory([]models.ShopEntry{
		{Brand: "KH", Area: "宇都宮", Shop: "宇都宮店"},
	})

	expected := "| #   | Brand | Area   | Shop     |\n" +
		"| --- | ----- | ------ | -------- |\n" +
		"| 1   | KH    | 宇都宮 | 宇都宮店 |\n"

	if got != expected {
		t.Errorf("RenderDirectory() = \n%v\nwant \n%v", got, expected)
	}
}
