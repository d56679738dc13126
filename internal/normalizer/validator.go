package normalizer

import (
	"leadrelay/internal/models"
	"leadrelay/internal/vendor"
)

// Validator decides whether a record is an actionable lead.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Check evaluates rules in order and returns the reason of the first rule that
// drops the record. keep is true when no rule matched.
func (v *Validator) Check(rec *models.Record, rules []vendor.Rule) (reason string, keep bool) {
	for _, r := range rules {
		value := rec.Value(r.Field)

		if r.Required {
			if value == "" {
				return r.Reason, false
			}

			continue
		}

		if rec.Has(r.Field) && value == r.Equals {
			return r.Reason, false
		}
	}

	return "", true
}
