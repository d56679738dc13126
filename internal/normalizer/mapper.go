// Package normalizer turns raw vendor rows into canonical lead records.
package normalizer

import (
	"strconv"

	"leadrelay/internal/models"
)

// MapRow translates a raw row into a canonical record. Each column is stored
// under columns[label] when a translation exists and under the original label
// otherwise, so unmapped columns are never dropped.
//
// Every column yields its own key. When the key is already taken, by a
// repeated header or by two labels translating to the same field, the later
// column falls back to its raw label, then to "label.1", "label.2" and so on.
func MapRow(row models.RawRow, columns map[string]string, vendor, brand string) *models.Record {
	rec := models.NewRecord(vendor, brand, row.Line)

	for _, c := range row.Columns {
		key := c.Label
		if canonical, ok := columns[c.Label]; ok && canonical != "" {
			key = canonical
		}

		if rec.Has(key) {
			key = uniqueKey(rec, c.Label)
		}

		rec.Set(key, c.Value)
	}

	return rec
}

func uniqueKey(rec *models.Record, label string) string {
	if !rec.Has(label) {
		return label
	}

	for n := 1; ; n++ {
		if key := label + "." + strconv.Itoa(n); !rec.Has(key) {
			return key
		}
	}
}
