package testing

import (
	"fmt"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/infrastructure/repositories/memory"
)

// Scenario bundles the three input tables of an allocation run
type Scenario struct {
	Demand   entities.DemandTable
	Capacity entities.CapacityTable
	Rates    entities.RateTable
}

// NewScenario returns a scenario with empty tables
func NewScenario() *Scenario {
	return &Scenario{
		Demand:   make(entities.DemandTable),
		Capacity: make(entities.CapacityTable),
		Rates:    make(entities.RateTable),
	}
}

// WithDemand adds a demand entry - panics on validation error
func (s *Scenario) WithDemand(period, category, product string, kg float64) *Scenario {
	entry, err := entities.NewDemandEntry(
		entities.Period(period),
		entities.Category(category),
		entities.Product(product),
		kg,
	)
	if err != nil {
		panic(err)
	}
	if err := s.Demand.Add(entry); err != nil {
		panic(err)
	}
	return s
}

// WithCapacity adds a capacity entry - panics on validation error
func (s *Scenario) WithCapacity(period, category, line string, hours float64) *Scenario {
	entry, err := entities.NewCapacityEntry(
		entities.Period(period),
		entities.Category(category),
		entities.Line(line),
		hours,
	)
	if err != nil {
		panic(err)
	}
	if err := s.Capacity.Add(entry); err != nil {
		panic(err)
	}
	return s
}

// WithRate adds a production rate - panics on validation error
func (s *Scenario) WithRate(period, category, line, product string, kgPerHour float64) *Scenario {
	entry, err := entities.NewRateEntry(
		entities.Period(period),
		entities.Category(category),
		entities.Line(line),
		entities.Product(product),
		kgPerHour,
	)
	if err != nil {
		panic(err)
	}
	if err := s.Rates.Add(entry); err != nil {
		panic(err)
	}
	return s
}

// Repository loads the scenario into a fresh in-memory repository
func (s *Scenario) Repository() *memory.ScenarioRepository {
	repo := memory.NewScenarioRepository()
	repo.LoadScenario(s.Demand, s.Capacity, s.Rates)
	return repo
}

// BuildSingleLineScenario creates one line that covers only half the demand:
// L1 makes 50kg in its 10 hours, the other 50kg has nowhere to go
func BuildSingleLineScenario() *Scenario {
	return NewScenario().
		WithDemand("P1", "Choc", "A", 100).
		WithCapacity("P1", "Choc", "L1", 10).
		WithRate("P1", "Choc", "L1", "A", 5)
}

// BuildTwoLineScenario creates two identical lines that exactly meet demand
func BuildTwoLineScenario() *Scenario {
	return BuildSingleLineScenario().
		WithCapacity("P1", "Choc", "L2", 10).
		WithRate("P1", "Choc", "L2", "A", 5)
}

// BuildFactoryScenario creates a two-period, two-category scenario:
//   - P1/Choc is short on capacity, both lines run full and the fallback
//     line covers the rest of B
//   - P1/Choc/C has no real line at all
//   - L1 runs in both categories in P1 but only has Choc rates
//   - P2 is fully covered
func BuildFactoryScenario() *Scenario {
	return NewScenario().
		// P1 Choc
		WithDemand("P1", "Choc", "A", 300).
		WithDemand("P1", "Choc", "B", 120).
		WithDemand("P1", "Choc", "C", 40).
		WithCapacity("P1", "Choc", "L1", 20).
		WithCapacity("P1", "Choc", "L2", 30).
		WithRate("P1", "Choc", "L1", "A", 10).
		WithRate("P1", "Choc", "L1", "B", 4).
		WithRate("P1", "Choc", "L2", "A", 6).
		WithRate("P1", "Choc", "L2", "B", 2).
		// P1 Candy
		WithDemand("P1", "Candy", "D", 80).
		WithCapacity("P1", "Candy", "L1", 12).
		WithCapacity("P1", "Candy", "L3", 40).
		WithRate("P1", "Candy", "L3", "D", 4).
		// P2 Choc
		WithDemand("P2", "Choc", "A", 50).
		WithCapacity("P2", "Choc", "L1", 40).
		WithRate("P2", "Choc", "L1", "A", 10)
}

// BuildGridScenario creates a synthetic scenario for benchmarks. Every line
// has 40 hours in every slot and makes every other product at a line-specific
// rate, so some products depend on the fallback line.
func BuildGridScenario(periods, categories, lines, products int) *Scenario {
	s := NewScenario()
	for p := range periods {
		period := fmt.Sprintf("P%02d", p+1)
		for c := range categories {
			category := fmt.Sprintf("C%d", c+1)
			for k := range products {
				s.WithDemand(period, category, fmt.Sprintf("SKU%03d", k+1), float64(100+10*k))
			}
			for l := range lines {
				line := fmt.Sprintf("L%02d", l+1)
				s.WithCapacity(period, category, line, 40)
				for k := range products {
					if (l+k)%2 == 0 {
						s.WithRate(period, category, line, fmt.Sprintf("SKU%03d", k+1), float64(5+l))
					}
				}
			}
		}
	}
	return s
}
