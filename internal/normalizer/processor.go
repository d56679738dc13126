package normalizer

import (
	"leadrelay/internal/models"
	"leadrelay/internal/shops"
	"leadrelay/internal/vendor"
)

// Result is the state of one record after the pre-submission stages.
type Result struct {
	Record      *models.Record
	SourceID    string
	Reason      string // filter reason when Stage is StageFilteredOut
	Attribution shops.Attribution
	Stage       models.Stage
}

// Kept reports whether the record survived the filter.
func (r Result) Kept() bool {
	return r.Stage == models.StageAttributed
}

// Processor runs mapping, normalization, attribution and filtering for one
// vendor profile.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	resolver    *shops.Resolver
	profile     vendor.Profile
}

// NewProcessor creates a processor for the given profile.
func NewProcessor(profile vendor.Profile, resolver *shops.Resolver) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
		resolver:    resolver,
		profile:     profile,
	}
}

// Process takes one raw row through Mapped, Normalized and Attributed, then
// applies the filter. It never fails: gaps in mapping, normalization or
// attribution all degrade to defined values.
func (p *Processor) Process(row models.RawRow, brand string) Result {
	// 1. Map vendor headers to canonical fields
	rec := MapRow(row, p.profile.Columns, p.profile.Name, brand)
	if p.profile.BrandField != "" {
		rec.Set(p.profile.BrandField, brand)
	}

	// 2. Normalize dates and free text
	p.transformer.Apply(rec, p.profile)

	// 3. Attribute to a shop
	attribution := p.resolver.Resolve(rec, p.profile.PrimaryPlace, p.profile.SecondaryPlace)

	result := Result{
		Record:      rec,
		SourceID:    rec.Value(p.profile.IDField),
		Attribution: attribution,
		Stage:       models.StageAttributed,
	}

	// 4. Filter non-actionable leads
	if reason, keep := p.validator.Check(rec, p.profile.Rules); !keep {
		result.Stage = models.StageFilteredOut
		result.Reason = reason
	}

	return result
}

// ProcessAll processes rows in order.
func (p *Processor) ProcessAll(rows []models.RawRow, brand string) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, p.Process(row, brand))
	}

	return results
}

// Profile returns the profile the processor was built for.
func (p *Processor) Profile() vendor.Profile {
	return p.profile
}
