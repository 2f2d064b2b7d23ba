package allocation

import (
	"math"
	"testing"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

func TestUtilization(t *testing.T) {
	capacity := entities.CapacityTable{
		{Period: "P1", Category: "Choc", Line: "L1"}:                  20,
		{Period: "P1", Category: "Choc", Line: "L2"}:                  10,
		{Period: "P1", Category: "Choc", Line: entities.FallbackLine}: math.Inf(1),
	}
	rates := entities.RateTable{
		key("L1", "A"): 5,
		key("L1", "B"): 2,
		key("L2", "A"): 5,
	}
	final := []entities.Allocation{
		entities.NewAllocation(key("L1", "A"), 10, 50),
		entities.NewAllocation(key("L1", "B"), 4, 8),
	}

	ratios, gaps := Utilization(final, capacity, rates)
	if len(gaps) != 0 {
		t.Errorf("Expected no rate gaps, got %v", gaps)
	}
	if len(ratios) != 2 {
		t.Fatalf("Expected ratios for L1 and L2 only, got %d", len(ratios))
	}

	l1 := ratios[0]
	if l1.Line != "L1" || !approxEqual(l1.RealizedHours, 14) {
		t.Errorf("Expected L1 realized 14h, got %s %v", l1.Line, l1.RealizedHours)
	}
	if !approxEqual(l1.Ratio, 20.0/14.0) {
		t.Errorf("Expected ratio %v, got %v", 20.0/14.0, l1.Ratio)
	}
	if l1.Band() != entities.Slack {
		t.Errorf("Expected slack band, got %v", l1.Band())
	}

	l2 := ratios[1]
	if l2.Defined() {
		t.Errorf("Expected undefined ratio for idle L2, got %v", l2.Ratio)
	}
	if l2.Capacity != 10 {
		t.Errorf("Expected L2 capacity 10, got %v", l2.Capacity)
	}
}

func TestUtilization_FullLineIsJustBelowOne(t *testing.T) {
	capacity := entities.CapacityTable{{Period: "P1", Category: "Choc", Line: "L1"}: 10}
	rates := entities.RateTable{key("L1", "A"): 5}
	final := []entities.Allocation{entities.NewAllocation(key("L1", "A"), 10, 50)}

	ratios, _ := Utilization(final, capacity, rates)
	r := ratios[0].Ratio
	if !(r > 0 && r < 1) || !approxEqual(r, 1) {
		t.Errorf("Expected ratio just below 1, got %v", r)
	}
}

func TestUtilization_CrossCategoryRecords(t *testing.T) {
	candyL1 := entities.CapacityKey{Period: "P1", Category: "Candy", Line: "L1"}
	capacity := entities.CapacityTable{candyL1: 12}
	capacity[entities.CapacityKey{Period: "P1", Category: "Choc", Line: "L1"}] = 20
	rates := entities.RateTable{key("L1", "A"): 10}
	rates[candyL1.WithProduct("D")] = 4
	rates[candyL1.WithProduct("A")] = 0
	final := []entities.Allocation{
		entities.NewAllocation(key("L1", "A"), 12, 120),
		entities.NewAllocation(candyL1.WithProduct("D"), 5, 20),
	}

	ratios, gaps := Utilization(final, capacity, rates)

	// Candy/L1 sees the Choc record on the same line and period, finds no
	// usable rate for it under Candy and reports it
	if len(gaps) != 2 {
		t.Fatalf("Expected 2 rate gaps, got %v", gaps)
	}
	for _, g := range gaps {
		if g.Category == "Candy" && (g.Product != "A" || g.RecordCategory != "Choc" || g.Mass != 120) {
			t.Errorf("Expected Candy gap for Choc record A 120kg, got %+v", g)
		}
		if g.Category == "Choc" && (g.Product != "D" || g.RecordCategory != "Candy") {
			t.Errorf("Expected Choc gap for Candy record D, got %+v", g)
		}
	}

	for _, r := range ratios {
		switch r.Category {
		case "Candy":
			if !approxEqual(r.RealizedHours, 5) {
				t.Errorf("Expected Candy/L1 realized 5h, got %v", r.RealizedHours)
			}
		case "Choc":
			if !approxEqual(r.RealizedHours, 12) {
				t.Errorf("Expected Choc/L1 realized 12h, got %v", r.RealizedHours)
			}
		}
	}
}

func TestUtilization_NoCapacity(t *testing.T) {
	ratios, gaps := Utilization(nil, entities.CapacityTable{}, entities.RateTable{})
	if len(ratios) != 0 || len(gaps) != 0 {
		t.Errorf("Expected empty output, got %v / %v", ratios, gaps)
	}
}

func TestUtilization_ZeroCapacityWithRealizedHours(t *testing.T) {
	// L1 has no Candy hours but Choc records on L1 still count toward the
	// (P1, L1) group through the shared Candy rate.
	capacity := entities.CapacityTable{
		{Period: "P1", Category: "Choc", Line: "L1"}:  20,
		{Period: "P1", Category: "Candy", Line: "L1"}: 0,
	}
	rates := entities.RateTable{key("L1", "A"): 5}
	rates[entities.RateKey{Period: "P1", Category: "Candy", Line: "L1", Product: "A"}] = 4
	final := []entities.Allocation{
		entities.NewAllocation(key("L1", "A"), 10, 50),
	}

	ratios, _ := Utilization(final, capacity, rates)
	if len(ratios) != 2 {
		t.Fatalf("Expected 2 ratios, got %d", len(ratios))
	}
	for _, r := range ratios {
		if r.Category != "Candy" {
			continue
		}
		if !approxEqual(r.RealizedHours, 12.5) {
			t.Errorf("Expected 12.5 realized hours, got %v", r.RealizedHours)
		}
		if r.Defined() {
			t.Errorf("Expected NaN ratio for zero capacity, got %v", r.Ratio)
		}
	}
	for _, r := range ratios {
		if r.Defined() && !(r.Ratio > 0) {
			t.Errorf("Expected a positive ratio, got %v for %s", r.Ratio, r.Category)
		}
	}
}
