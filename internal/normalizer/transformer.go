package normalizer

import (
	"strings"

	"leadrelay/internal/vendor"
)

// dateReplacer rewrites the vendor date separators to "/".
var dateReplacer = strings.NewReplacer(
	"年", "/",
	"月", "/",
	"日", "",
	"-", "/",
	".", "/",
)

// Transformer applies per-field text transforms to canonical records.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// NormalizeDate rewrites a vendor date to YYYY/MM/DD and drops any trailing
// time of day. Already normalized values are returned unchanged.
func (t *Transformer) NormalizeDate(s string) string {
	fields := strings.Fields(dateReplacer.Replace(s))
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// CleanText removes embedded quotes and the leading "=" that spreadsheet
// exports put in front of text cells.
func (t *Transformer) CleanText(s string) string {
	return strings.Replace(strings.ReplaceAll(s, `"`, ""), "=", "", 1)
}

// Apply normalizes the profile's date and free-text fields in place. Absent or
// empty fields are left as they are.
func (t *Transformer) Apply(rec recordFields, p vendor.Profile) {
	for _, f := range p.DateFields {
		if v, ok := rec.Get(f); ok && v != "" {
			rec.Set(f, t.NormalizeDate(v))
		}
	}

	for _, f := range p.TextFields {
		if v, ok := rec.Get(f); ok && v != "" {
			rec.Set(f, t.CleanText(v))
		}
	}
}

// recordFields is the part of models.Record the transformer touches.
type recordFields interface {
	Get(key string) (string, bool)
	Set(key, value string)
}
