package allocation

import (
	"math"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// RatioEpsilon keeps the capacity/realized division away from zero
const RatioEpsilon = 1e-9

// Utilization compares every real line's capacity with the hours its final
// allocations take. Realized hours for a capacity key are summed over all
// final records in the same period on the same line, converting mass back to
// hours with the rate of the capacity key's category. A record whose product
// has no rate under that category adds nothing and is returned as a RateGap.
// The ratio is NaN when nothing was realized, and also when the key has zero
// capacity: hours realized there come from another category's records.
func Utilization(
	final []entities.Allocation,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) ([]entities.UtilizationRatio, []entities.RateGap) {
	type periodLine struct {
		period entities.Period
		line   entities.Line
	}
	byPeriodLine := make(map[periodLine][]entities.Allocation)
	for _, a := range final {
		if a.Line.IsFallback() {
			continue
		}
		pl := periodLine{a.Period, a.Line}
		byPeriodLine[pl] = append(byPeriodLine[pl], a)
	}

	var ratios []entities.UtilizationRatio
	var gaps []entities.RateGap
	for _, ck := range capacity.Keys() {
		if ck.Line.IsFallback() {
			continue
		}
		realized := 0.0
		for _, a := range byPeriodLine[periodLine{ck.Period, ck.Line}] {
			rate, ok := rates.RateOf(ck.WithProduct(a.Product))
			if !ok {
				gaps = append(gaps, entities.RateGap{
					Period:         ck.Period,
					Category:       ck.Category,
					Line:           ck.Line,
					Product:        a.Product,
					RecordCategory: a.Category,
					Mass:           a.Mass,
				})
				continue
			}
			realized += a.Mass / rate
		}

		hours := capacity[ck]
		ratio := math.NaN()
		if realized > 0 && hours > 0 {
			ratio = hours / (realized + RatioEpsilon)
		}
		ratios = append(ratios, entities.UtilizationRatio{
			Period:        ck.Period,
			Category:      ck.Category,
			Line:          ck.Line,
			Capacity:      hours,
			RealizedHours: realized,
			Ratio:         ratio,
		})
	}
	return ratios, gaps
}
