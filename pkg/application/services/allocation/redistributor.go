package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// Policy selects how fallback output is attributed to real lines
type Policy string

const (
	// PolicyCapacityBounded splits fallback mass equally across eligible lines
	// but never beyond a line's remaining hours; the remainder is a gap
	PolicyCapacityBounded Policy = "capacity_bounded"
	// PolicyEqualSplit splits fallback mass equally across every eligible line
	// regardless of capacity
	PolicyEqualSplit Policy = "equal_split"
)

// ParsePolicy converts a configuration value to a Policy
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyCapacityBounded, PolicyEqualSplit:
		return Policy(s), nil
	case "":
		return PolicyCapacityBounded, nil
	default:
		return "", fmt.Errorf("unknown redistribution policy %q (expected %s or %s)",
			s, PolicyCapacityBounded, PolicyEqualSplit)
	}
}

// Redistribution is the outcome of moving fallback output onto real lines
type Redistribution struct {
	// Allocations is fallback-free and aggregated per key
	Allocations []entities.Allocation
	Transfers   []entities.Allocation
	Gaps        []entities.RedistributionGap
}

// Redistributor reassigns fallback-line output to real lines
type Redistributor struct {
	policy    Policy
	lines     []entities.Line
	tolerance float64
}

// NewRedistributor creates a redistributor over the given candidate lines.
// The fallback line is ignored if present.
func NewRedistributor(policy Policy, lines []entities.Line) *Redistributor {
	return NewRedistributorWithTolerance(policy, lines, DefaultExtractionTolerance)
}

// NewRedistributorWithTolerance is NewRedistributor with a custom hours
// tolerance: headroom and transfers at or below it count as zero
func NewRedistributorWithTolerance(policy Policy, lines []entities.Line, tolerance float64) *Redistributor {
	real := make([]entities.Line, 0, len(lines))
	for _, l := range lines {
		if !l.IsFallback() {
			real = append(real, l)
		}
	}
	if tolerance < 0 {
		tolerance = 0
	}
	return &Redistributor{policy: policy, lines: real, tolerance: tolerance}
}

type eligibleLine struct {
	key  entities.RateKey
	rate float64
}

// Redistribute splits every fallback record's mass equally (by line count)
// across the real lines with a positive rate for the same period, category
// and product, converting each share back to hours at that line's rate.
// Fallback mass with no eligible line, or no capacity left under the
// capacity-bounded policy, is recorded as a gap. For every demand key the
// fallback mass equals transferred mass plus gap mass.
func (r *Redistributor) Redistribute(
	raw []entities.Allocation,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) Redistribution {
	var result Redistribution

	headroom := make(map[entities.CapacityKey]float64)
	if r.policy == PolicyCapacityBounded {
		used := make(map[entities.CapacityKey]float64)
		for _, a := range raw {
			if !a.Line.IsFallback() {
				used[a.Key().Capacity()] += a.Hours
			}
		}
		for key, hours := range capacity {
			if key.Line.IsFallback() {
				continue
			}
			if left := hours - used[key]; left > r.tolerance {
				headroom[key] = left
			}
		}
	}

	aggregate := newAggregator()
	for _, a := range raw {
		if a.Line.IsFallback() {
			continue
		}
		aggregate.add(a)
	}

	for _, a := range raw {
		if !a.Line.IsFallback() {
			continue
		}
		dk := a.Key().Demand()
		eligible := r.eligibleLines(dk, rates)

		var remaining decimal.Decimal
		var transfers []entities.Allocation
		switch r.policy {
		case PolicyEqualSplit:
			transfers, remaining = splitUnbounded(a.Mass, eligible)
		default:
			transfers, remaining = splitBounded(a.Mass, eligible, headroom, r.tolerance)
		}

		for _, t := range transfers {
			aggregate.add(t)
		}
		result.Transfers = append(result.Transfers, transfers...)

		if remaining.IsPositive() {
			result.Gaps = append(result.Gaps, entities.RedistributionGap{
				Period:        dk.Period,
				Category:      dk.Category,
				Product:       dk.Product,
				Mass:          remaining.InexactFloat64(),
				EligibleLines: len(eligible),
			})
		}
	}

	result.Allocations = aggregate.rows()
	entities.SortAllocations(result.Transfers)
	return result
}

func (r *Redistributor) eligibleLines(dk entities.DemandKey, rates entities.RateTable) []eligibleLine {
	var out []eligibleLine
	for _, l := range r.lines {
		key := dk.WithLine(l)
		if rate, ok := rates.RateOf(key); ok {
			out = append(out, eligibleLine{key: key, rate: rate})
		}
	}
	return out
}

// splitUnbounded gives every eligible line the same share of mass
func splitUnbounded(mass float64, eligible []eligibleLine) ([]entities.Allocation, decimal.Decimal) {
	total := decimal.NewFromFloat(mass)
	if len(eligible) == 0 {
		return nil, total
	}
	shares := splitEqually(total, len(eligible))
	transfers := make([]entities.Allocation, 0, len(eligible))
	for i, line := range eligible {
		share := shares[i].InexactFloat64()
		transfers = append(transfers, entities.NewAllocation(line.key, share/line.rate, share))
	}
	return transfers, decimal.Zero
}

// splitBounded hands out equal shares in rounds. A line whose headroom is
// smaller than its share takes what fits and leaves the round; the rest is
// split again among the lines that still have room. A take worth no more
// than tolerance hours is not placed and its line leaves the round.
func splitBounded(
	mass float64,
	eligible []eligibleLine,
	headroom map[entities.CapacityKey]float64,
	tolerance float64,
) ([]entities.Allocation, decimal.Decimal) {
	remaining := decimal.NewFromFloat(mass)

	candidates := make([]eligibleLine, 0, len(eligible))
	for _, line := range eligible {
		if headroom[line.key.Capacity()] > tolerance {
			candidates = append(candidates, line)
		}
	}

	placed := make(map[entities.RateKey]decimal.Decimal)
	for remaining.IsPositive() && len(candidates) > 0 {
		shares := splitEqually(remaining, len(candidates))
		next := candidates[:0:0]
		for i, line := range candidates {
			ck := line.key.Capacity()
			limit := decimal.NewFromFloat(headroom[ck] * line.rate)
			take := shares[i]
			if take.InexactFloat64()/line.rate <= tolerance {
				continue
			}
			if take.GreaterThanOrEqual(limit) {
				take = limit
				headroom[ck] = 0
			} else {
				headroom[ck] -= take.InexactFloat64() / line.rate
				if headroom[ck] > tolerance {
					next = append(next, line)
				} else {
					headroom[ck] = 0
				}
			}
			if take.IsPositive() {
				placed[line.key] = placed[line.key].Add(take)
				remaining = remaining.Sub(take)
			}
		}
		candidates = next
	}

	var transfers []entities.Allocation
	for _, line := range eligible {
		take, ok := placed[line.key]
		if !ok {
			continue
		}
		mass := take.InexactFloat64()
		transfers = append(transfers, entities.NewAllocation(line.key, mass/line.rate, mass))
	}
	return transfers, remaining
}

// splitEqually divides total into n shares that sum exactly to total
func splitEqually(total decimal.Decimal, n int) []decimal.Decimal {
	shares := make([]decimal.Decimal, n)
	share := total.Div(decimal.NewFromInt(int64(n)))
	given := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = share
		given = given.Add(share)
	}
	shares[n-1] = total.Sub(given)
	return shares
}

// aggregator sums hours and mass per allocation key
type aggregator struct {
	rowsByKey map[entities.RateKey]*entities.Allocation
}

func newAggregator() *aggregator {
	return &aggregator{rowsByKey: make(map[entities.RateKey]*entities.Allocation)}
}

func (g *aggregator) add(a entities.Allocation) {
	key := a.Key()
	if row, ok := g.rowsByKey[key]; ok {
		row.Hours += a.Hours
		row.Mass += a.Mass
		return
	}
	cp := a
	g.rowsByKey[key] = &cp
}

func (g *aggregator) rows() []entities.Allocation {
	out := make([]entities.Allocation, 0, len(g.rowsByKey))
	for _, row := range g.rowsByKey {
		out = append(out, *row)
	}
	entities.SortAllocations(out)
	return out
}
