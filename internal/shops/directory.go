// Package shops holds the shop directory and resolves which shop a lead
// belongs to from its location text.
package shops

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"leadrelay/internal/models"
)

// ErrIncompleteEntry is returned when a directory entry lacks a brand, area or shop.
var ErrIncompleteEntry = errors.New("shop entry needs brand, area and shop")

// Directory is the ordered, read-only shop reference table.
//
// Declaration order is significant: several entries may share a brand, and
// Match returns the first one whose area occurs in the text. Entries for a
// brand are therefore authored from most to least specific. A Directory is
// never mutated after construction and is safe to share between jobs.
type Directory struct {
	entries []models.ShopEntry
}

// NewDirectory copies entries into a directory, keeping their order.
func NewDirectory(entries []models.ShopEntry) (*Directory, error) {
	cp := make([]models.ShopEntry, len(entries))

	for i, e := range entries {
		if e.Brand == "" || e.Area == "" || e.Shop == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrIncompleteEntry, i)
		}

		cp[i] = e
	}

	return &Directory{entries: cp}, nil
}

// LoadDirectory reads a YAML list of {brand, area, shop} entries from path.
// Entries from the file come first, followed by extra in order.
func LoadDirectory(path string, extra []models.ShopEntry) (*Directory, error) {
	var entries []models.ShopEntry

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read shop directory: %w", err)
		}

		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse shop directory: %w", err)
		}
	}

	entries = append(entries, extra...)

	return NewDirectory(entries)
}

// Match returns the first entry for brand whose area is a substring of text.
// Matching is case-sensitive containment.
func (d *Directory) Match(brand, text string) (models.ShopEntry, bool) {
	if text == "" {
		return models.ShopEntry{}, false
	}

	for _, e := range d.entries {
		if e.Brand == brand && strings.Contains(text, e.Area) {
			return e, true
		}
	}

	return models.ShopEntry{}, false
}

// Entries returns a copy of the directory in declaration order.
func (d *Directory) Entries() []models.ShopEntry {
	cp := make([]models.ShopEntry, len(d.entries))
	copy(cp, d.entries)

	return cp
}

// Len returns the number of entries.
func (d *Directory) Len() int {
	return len(d.entries)
}
