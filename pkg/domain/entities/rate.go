package entities

import (
	"fmt"
)

// RateEntry represents the mass a line produces per hour of a product
type RateEntry struct {
	Key       RateKey
	KgPerHour float64
}

// NewRateEntry creates a validated RateEntry. A zero rate is accepted and
// treated as "line cannot produce this product".
func NewRateEntry(period Period, category Category, line Line, product Product, kgPerHour float64) (*RateEntry, error) {
	if err := validateIdentifiers(string(period), string(category)); err != nil {
		return nil, err
	}
	if line == "" {
		return nil, fmt.Errorf("line cannot be empty")
	}
	if line.IsFallback() {
		return nil, fmt.Errorf("line name %s is reserved", FallbackLine)
	}
	if product == "" {
		return nil, fmt.Errorf("product cannot be empty")
	}
	if err := validateAmount("production rate", kgPerHour); err != nil {
		return nil, err
	}

	return &RateEntry{
		Key:       RateKey{Period: period, Category: category, Line: line, Product: product},
		KgPerHour: kgPerHour,
	}, nil
}

// RateTable maps (period, category, line, product) to output per hour.
// An absent key means the line cannot produce the product.
type RateTable map[RateKey]float64

// RateOf is the single lookup used by the allocation pipeline. Missing and
// non-positive rates both report (0, false).
func (t RateTable) RateOf(key RateKey) (float64, bool) {
	rate, ok := t[key]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// Clone returns an independent copy of the table
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns the table keys in lexicographic order
func (t RateTable) Keys() []RateKey {
	keys := make([]RateKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sortKeys(keys, RateKey.Less)
	return keys
}

// Add inserts the entry, rejecting duplicate keys
func (t RateTable) Add(entry *RateEntry) error {
	if _, exists := t[entry.Key]; exists {
		return fmt.Errorf("duplicate rate for %s/%s/%s/%s",
			entry.Key.Period, entry.Key.Category, entry.Key.Line, entry.Key.Product)
	}
	t[entry.Key] = entry.KgPerHour
	return nil
}
