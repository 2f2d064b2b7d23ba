package entities

import (
	"fmt"
	"math"
)

// DemandEntry represents the mass of a product required in a planning slot
type DemandEntry struct {
	Key      DemandKey
	Quantity float64 // mass units (kg)
}

// NewDemandEntry creates a validated DemandEntry
func NewDemandEntry(period Period, category Category, product Product, quantity float64) (*DemandEntry, error) {
	if err := validateIdentifiers(string(period), string(category)); err != nil {
		return nil, err
	}
	if product == "" {
		return nil, fmt.Errorf("product cannot be empty")
	}
	if err := validateAmount("demand quantity", quantity); err != nil {
		return nil, err
	}

	return &DemandEntry{
		Key:      DemandKey{Period: period, Category: category, Product: product},
		Quantity: quantity,
	}, nil
}

// DemandTable maps (period, category, product) to required mass.
// An absent key means no demand.
type DemandTable map[DemandKey]float64

// Clone returns an independent copy of the table
func (t DemandTable) Clone() DemandTable {
	out := make(DemandTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns the table keys in lexicographic order
func (t DemandTable) Keys() []DemandKey {
	keys := make([]DemandKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sortKeys(keys, DemandKey.Less)
	return keys
}

// Total returns the summed demand over all keys
func (t DemandTable) Total() float64 {
	var total float64
	for _, v := range t {
		total += v
	}
	return total
}

// Add inserts the entry, rejecting duplicate keys
func (t DemandTable) Add(entry *DemandEntry) error {
	if _, exists := t[entry.Key]; exists {
		return fmt.Errorf("duplicate demand for %s/%s/%s", entry.Key.Period, entry.Key.Category, entry.Key.Product)
	}
	t[entry.Key] = entry.Quantity
	return nil
}

func validateIdentifiers(period, category string) error {
	if period == "" {
		return fmt.Errorf("period cannot be empty")
	}
	if category == "" {
		return fmt.Errorf("category cannot be empty")
	}
	return nil
}

func validateAmount(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, value)
	}
	if value < 0 {
		return fmt.Errorf("%s cannot be negative, got %v", name, value)
	}
	return nil
}
