package shops

import "leadrelay/internal/models"

// Tier tells which step of the resolution assigned the shop.
type Tier string

// Resolution tiers.
const (
	TierPrimary     Tier = "primary"
	TierSecondary   Tier = "secondary"
	TierPlaceholder Tier = "placeholder"
)

// Attribution is the result of resolving a record's shop.
type Attribution struct {
	Shop  string
	Tier  Tier
	Field string // record field that produced the match, empty for placeholders
}

// Resolver assigns shops to records using a Directory.
type Resolver struct {
	directory *Directory
	aliases   map[string]string
	suffix    string
}

// NewResolver creates a resolver. aliases maps a brand code to the display
// label used in placeholders; suffix is appended to form the placeholder.
func NewResolver(dir *Directory, aliases map[string]string, suffix string) *Resolver {
	cp := make(map[string]string, len(aliases))
	for k, v := range aliases {
		cp[k] = v
	}

	return &Resolver{directory: dir, aliases: cp, suffix: suffix}
}

// Resolve sets rec.Shop and reports how it was decided.
//
// The primary field is tried first; the secondary field is tried only when the
// primary one is empty or matched nothing. When neither matches, the shop is
// the brand's placeholder, so rec.Shop is never left empty.
func (r *Resolver) Resolve(rec *models.Record, primaryField, secondaryField string) Attribution {
	rec.Shop = ""

	if v := rec.Value(primaryField); v != "" {
		if e, ok := r.directory.Match(rec.Brand, v); ok {
			rec.Shop = e.Shop

			return Attribution{Shop: e.Shop, Tier: TierPrimary, Field: primaryField}
		}
	}

	if rec.Shop == "" {
		if e, ok := r.directory.Match(rec.Brand, rec.Value(secondaryField)); ok {
			rec.Shop = e.Shop

			return Attribution{Shop: e.Shop, Tier: TierSecondary, Field: secondaryField}
		}
	}

	rec.Shop = r.Placeholder(rec.Brand)

	return Attribution{Shop: rec.Shop, Tier: TierPlaceholder}
}

// Placeholder returns the unassigned-shop label for brand.
func (r *Resolver) Placeholder(brand string) string {
	label := brand
	if alias, ok := r.aliases[brand]; ok && alias != "" {
		label = alias
	}

	return label + r.suffix
}

// Directory returns the directory the resolver scans.
func (r *Resolver) Directory() *Directory {
	return r.directory
}
