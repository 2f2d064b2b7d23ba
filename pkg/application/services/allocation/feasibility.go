package allocation

import (
	"math"
	"slices"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// DefaultFallbackRate is the output per hour of the fallback line. It must be
// far below any real rate so the optimizer only uses the fallback line for
// demand real capacity cannot cover.
const DefaultFallbackRate = 0.01

// Augmented holds the model inputs after the fallback line was added
type Augmented struct {
	Index    Index
	Capacity entities.CapacityTable
	Rates    entities.RateTable
}

// Augment adds the fallback line: an unbounded capacity entry for every
// (period, category) with demand and a fallback rate for every demand key.
// The caller's tables are copied, never modified, and existing entries keep
// their values.
func Augment(
	index Index,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
	fallbackRate float64,
) Augmented {
	if fallbackRate <= 0 {
		fallbackRate = DefaultFallbackRate
	}

	augCapacity := capacity.Clone()
	augRates := rates.Clone()

	for key := range demand {
		augRates[key.WithLine(entities.FallbackLine)] = fallbackRate
		slot := key.Slot()
		augCapacity[entities.CapacityKey{
			Period:   slot.Period,
			Category: slot.Category,
			Line:     entities.FallbackLine,
		}] = math.Inf(1)
	}

	augIndex := index
	augIndex.Lines = slices.Clone(index.Lines)
	if !slices.Contains(augIndex.Lines, entities.FallbackLine) {
		augIndex.Lines = append(augIndex.Lines, entities.FallbackLine)
	}

	return Augmented{Index: augIndex, Capacity: augCapacity, Rates: augRates}
}
