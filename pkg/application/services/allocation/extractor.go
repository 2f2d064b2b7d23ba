package allocation

import (
	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/lp"
)

// DefaultExtractionTolerance drops solver round-off below this many hours
const DefaultExtractionTolerance = 1e-9

// Extract turns a solved assignment into allocation records, fallback rows
// included. Hours at or below tolerance are discarded; mass is hours × rate.
func Extract(
	f *Formulation,
	assignment lp.Assignment,
	rates entities.RateTable,
	tolerance float64,
) []entities.Allocation {
	var out []entities.Allocation
	for i, key := range f.Keys {
		hours := assignment[i]
		if hours <= tolerance {
			continue
		}
		rate, _ := rates.RateOf(key)
		out = append(out, entities.NewAllocation(key, hours, hours*rate))
	}
	entities.SortAllocations(out)
	return out
}
