package models

import (
	"net/url"
	"strings"
)

// ShopField is the single shared canonical field holding the resolved shop.
const ShopField = "shop"

// Record is a canonical lead record. Field names are vendor-namespaced except
// for Shop, which is empty until attribution succeeds or falls back.
type Record struct {
	values map[string]string
	Vendor string
	Brand  string
	Shop   string
	keys   []string
	Line   int
}

// NewRecord creates an empty record for the given vendor job.
func NewRecord(vendor, brand string, line int) *Record {
	return &Record{
		Vendor: vendor,
		Brand:  brand,
		Line:   line,
		values: make(map[string]string),
	}
}

// Set stores value under key. An existing key keeps its original position.
func (r *Record) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = value
}

// Get returns the value stored under key and whether it exists.
func (r *Record) Get(key string) (string, bool) {
	v, ok := r.values[key]

	return v, ok
}

// Value returns the value stored under key, or "" when absent.
func (r *Record) Value(key string) string {
	return r.values[key]
}

// Has reports whether key is present, even with an empty value.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]

	return ok
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)

	return keys
}

// Len returns the number of fields, excluding Shop.
func (r *Record) Len() int {
	return len(r.keys)
}

// Encode serializes the record as an application/x-www-form-urlencoded body.
// Fields keep their insertion order and shop is appended last.
func (r *Record) Encode() string {
	var sb strings.Builder

	write := func(k, v string) {
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(v))
	}

	for _, k := range r.keys {
		if k == ShopField {
			continue
		}

		write(k, r.values[k])
	}

	if r.Shop != "" {
		write(ShopField, r.Shop)
	}

	return sb.String()
}
