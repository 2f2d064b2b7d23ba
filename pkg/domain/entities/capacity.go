package entities

import (
	"fmt"
	"math"
	"slices"
)

// CapacityEntry represents the hours a line has available in a planning slot
type CapacityEntry struct {
	Key   CapacityKey
	Hours float64
}

// NewCapacityEntry creates a validated CapacityEntry
func NewCapacityEntry(period Period, category Category, line Line, hours float64) (*CapacityEntry, error) {
	if err := validateIdentifiers(string(period), string(category)); err != nil {
		return nil, err
	}
	if line == "" {
		return nil, fmt.Errorf("line cannot be empty")
	}
	if line.IsFallback() {
		return nil, fmt.Errorf("line name %s is reserved", FallbackLine)
	}
	if err := validateAmount("available hours", hours); err != nil {
		return nil, err
	}

	return &CapacityEntry{
		Key:   CapacityKey{Period: period, Category: category, Line: line},
		Hours: hours,
	}, nil
}

// CapacityTable maps (period, category, line) to available hours.
// An absent key means zero capacity; +Inf is only used for the fallback line.
type CapacityTable map[CapacityKey]float64

// Clone returns an independent copy of the table
func (t CapacityTable) Clone() CapacityTable {
	out := make(CapacityTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns the table keys in lexicographic order
func (t CapacityTable) Keys() []CapacityKey {
	keys := make([]CapacityKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sortKeys(keys, CapacityKey.Less)
	return keys
}

// HoursOf returns the stated capacity, or zero when absent
func (t CapacityTable) HoursOf(key CapacityKey) float64 {
	return t[key]
}

// IsBounded reports whether the key has a stated finite capacity
func (t CapacityTable) IsBounded(key CapacityKey) bool {
	hours, ok := t[key]
	return ok && !math.IsInf(hours, 1)
}

// Add inserts the entry, rejecting duplicate keys
func (t CapacityTable) Add(entry *CapacityEntry) error {
	if _, exists := t[entry.Key]; exists {
		return fmt.Errorf("duplicate capacity for %s/%s/%s", entry.Key.Period, entry.Key.Category, entry.Key.Line)
	}
	t[entry.Key] = entry.Hours
	return nil
}

func sortKeys[K any](keys []K, less func(a, b K) bool) {
	slices.SortFunc(keys, func(a, b K) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
}
