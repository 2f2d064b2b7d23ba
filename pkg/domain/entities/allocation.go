package entities

// Allocation represents hours assigned to a line for a product, with the mass
// those hours produce at the line's rate
type Allocation struct {
	Period   Period   `json:"period"`
	Category Category `json:"category"`
	Line     Line     `json:"line"`
	Product  Product  `json:"product"`
	Hours    float64  `json:"hours"`
	Mass     float64  `json:"mass_kg"`
}

// Key returns the allocation's composite key
func (a Allocation) Key() RateKey {
	return RateKey{Period: a.Period, Category: a.Category, Line: a.Line, Product: a.Product}
}

// NewAllocation builds an allocation record for the given key
func NewAllocation(key RateKey, hours, mass float64) Allocation {
	return Allocation{
		Period:   key.Period,
		Category: key.Category,
		Line:     key.Line,
		Product:  key.Product,
		Hours:    hours,
		Mass:     mass,
	}
}

// SortAllocations orders allocations by key
func SortAllocations(allocations []Allocation) {
	sortKeys(allocations, func(a, b Allocation) bool { return a.Key().Less(b.Key()) })
}

// RedistributionGap records fallback output that no real line could absorb.
// The demand behind it is unmet.
type RedistributionGap struct {
	Period   Period   `json:"period"`
	Category Category `json:"category"`
	Product  Product  `json:"product"`
	Mass     float64  `json:"mass_kg"`
	// EligibleLines is the number of real lines able to make the product;
	// zero means the product has no real line at all in this slot.
	EligibleLines int `json:"eligible_lines"`
}

// Key returns the demand key the gap belongs to
func (g RedistributionGap) Key() DemandKey {
	return DemandKey{Period: g.Period, Category: g.Category, Product: g.Product}
}

// RateGap records an allocation that was skipped while computing realized
// hours for a capacity slot because no rate is defined for it there
type RateGap struct {
	Period         Period   `json:"period"`
	Category       Category `json:"category"`
	Line           Line     `json:"line"`
	Product        Product  `json:"product"`
	RecordCategory Category `json:"record_category"`
	Mass           float64  `json:"mass_kg"`
}
