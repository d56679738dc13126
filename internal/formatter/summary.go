package formatter

import (
	"strconv"
	"strings"

	"leadrelay/internal/models"
	"leadrelay/internal/pipeline"
)

var summaryHeader = []string{"Vendor", "Brand", "Rows", "Filtered", "Delivered", "Failed", "Placeholder", "Error"}

// RenderSummary renders one row per job report followed by a total row.
func RenderSummary(reports []pipeline.Report) string {
	rows := make([][]string, 0, len(reports)+1)

	var total pipeline.Report

	for _, r := range reports {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}

		rows = append(rows, countRow(r.Vendor, r.Brand, r, errText))

		total.Rows += r.Rows
		total.Filtered += r.Filtered
		total.Delivered += r.Delivered
		total.Failed += r.Failed
		total.Placeholder += r.Placeholder
	}

	rows = append(rows, countRow("total", "", total, ""))

	return strings.Join(AlignTable(summaryHeader, rows), "\n") + "\n"
}

func countRow(vendorName, brand string, r pipeline.Report, errText string) []string {
	return []string{
		vendorName,
		brand,
		strconv.Itoa(r.Rows),
		strconv.Itoa(r.Filtered),
		strconv.Itoa(r.Delivered),
		strconv.Itoa(r.Failed),
		strconv.Itoa(r.Placeholder),
		errText,
	}
}

// RenderDirectory renders the shop directory in declared order.
func RenderDirectory(entries []models.ShopEntry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Brand, e.Area, e.Shop})
	}

	return strings.Join(AlignTable([]string{"#", "Brand", "Area", "Shop"}, rows), "\n") + "\n"
}
