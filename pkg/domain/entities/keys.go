package entities

// Period represents a discrete planning bucket (e.g. a quarter)
type Period string

// Category represents a coarse product grouping
type Category string

// Product represents a producible item
type Product string

// Line represents a production resource with hours of capacity
type Line string

// FallbackLine is the synthetic line that keeps the allocation model feasible.
// It never appears in reported allocations or utilization.
const FallbackLine Line = "Fallback_Line"

// IsFallback reports whether the line is the synthetic fallback line
func (l Line) IsFallback() bool {
	return l == FallbackLine
}

// SlotKey identifies a (period, category) planning slot
type SlotKey struct {
	Period   Period
	Category Category
}

// Less orders slot keys lexicographically by period, then category
func (k SlotKey) Less(o SlotKey) bool {
	if k.Period != o.Period {
		return k.Period < o.Period
	}
	return k.Category < o.Category
}

// DemandKey identifies a demand entry
type DemandKey struct {
	Period   Period
	Category Category
	Product  Product
}

// Slot returns the (period, category) part of the key
func (k DemandKey) Slot() SlotKey {
	return SlotKey{Period: k.Period, Category: k.Category}
}

// WithLine builds the rate key for this demand on the given line
func (k DemandKey) WithLine(line Line) RateKey {
	return RateKey{Period: k.Period, Category: k.Category, Line: line, Product: k.Product}
}

// Less orders demand keys lexicographically
func (k DemandKey) Less(o DemandKey) bool {
	if k.Slot() != o.Slot() {
		return k.Slot().Less(o.Slot())
	}
	return k.Product < o.Product
}

// CapacityKey identifies a capacity entry
type CapacityKey struct {
	Period   Period
	Category Category
	Line     Line
}

// Slot returns the (period, category) part of the key
func (k CapacityKey) Slot() SlotKey {
	return SlotKey{Period: k.Period, Category: k.Category}
}

// WithProduct builds the rate key for the given product on this line
func (k CapacityKey) WithProduct(product Product) RateKey {
	return RateKey{Period: k.Period, Category: k.Category, Line: k.Line, Product: product}
}

// Less orders capacity keys lexicographically
func (k CapacityKey) Less(o CapacityKey) bool {
	if k.Slot() != o.Slot() {
		return k.Slot().Less(o.Slot())
	}
	return k.Line < o.Line
}

// RateKey identifies a production rate, and doubles as the allocation key
type RateKey struct {
	Period   Period
	Category Category
	Line     Line
	Product  Product
}

// Demand returns the demand key this rate contributes to
func (k RateKey) Demand() DemandKey {
	return DemandKey{Period: k.Period, Category: k.Category, Product: k.Product}
}

// Capacity returns the capacity key this rate consumes
func (k RateKey) Capacity() CapacityKey {
	return CapacityKey{Period: k.Period, Category: k.Category, Line: k.Line}
}

// Less orders rate keys lexicographically by period, category, line, product
func (k RateKey) Less(o RateKey) bool {
	if k.Capacity() != o.Capacity() {
		return k.Capacity().Less(o.Capacity())
	}
	return k.Product < o.Product
}
