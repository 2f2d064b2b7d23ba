package entities

import (
	"math"
	"testing"
)

func TestDemandEntry_Validation(t *testing.T) {
	valid, err := NewDemandEntry("P1", "Choc", "A", 100)
	if err != nil {
		t.Fatalf("Expected valid demand creation to succeed: %v", err)
	}
	if valid.Quantity != 100 {
		t.Errorf("Expected quantity 100, got %v", valid.Quantity)
	}

	testCases := []struct {
		name        string
		period      Period
		category    Category
		product     Product
		quantity    float64
		expectError string
	}{
		{"empty period", "", "Choc", "A", 1, "period cannot be empty"},
		{"empty category", "P1", "", "A", 1, "category cannot be empty"},
		{"empty product", "P1", "Choc", "", 1, "product cannot be empty"},
		{"negative quantity", "P1", "Choc", "A", -5, "demand quantity cannot be negative, got -5"},
		{"nan quantity", "P1", "Choc", "A", math.NaN(), "demand quantity must be finite, got NaN"},
		{"infinite quantity", "P1", "Choc", "A", math.Inf(1), "demand quantity must be finite, got +Inf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDemandEntry(tc.period, tc.category, tc.product, tc.quantity)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestCapacityEntry_Validation(t *testing.T) {
	if _, err := NewCapacityEntry("P1", "Choc", "L1", 0); err != nil {
		t.Fatalf("Expected zero capacity to be accepted: %v", err)
	}

	testCases := []struct {
		name        string
		line        Line
		hours       float64
		expectError string
	}{
		{"empty line", "", 10, "line cannot be empty"},
		{"reserved line", FallbackLine, 10, "line name Fallback_Line is reserved"},
		{"negative hours", "L1", -1, "available hours cannot be negative, got -1"},
		{"infinite hours", "L1", math.Inf(1), "available hours must be finite, got +Inf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCapacityEntry("P1", "Choc", tc.line, tc.hours)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestRateEntry_Validation(t *testing.T) {
	if _, err := NewRateEntry("P1", "Choc", "L1", "A", 0); err != nil {
		t.Fatalf("Expected zero rate to be accepted: %v", err)
	}
	if _, err := NewRateEntry("P1", "Choc", "L1", "A", -0.5); err == nil {
		t.Error("Expected negative rate to be rejected")
	}
	if _, err := NewRateEntry("P1", "Choc", FallbackLine, "A", 1); err == nil {
		t.Error("Expected fallback line rate to be rejected")
	}
}

func TestTables_AddRejectsDuplicates(t *testing.T) {
	demand := DemandTable{}
	entry, _ := NewDemandEntry("P1", "Choc", "A", 10)
	if err := demand.Add(entry); err != nil {
		t.Fatalf("Unexpected error on first add: %v", err)
	}
	if err := demand.Add(entry); err == nil {
		t.Error("Expected duplicate demand to be rejected")
	}

	capacity := CapacityTable{}
	capEntry, _ := NewCapacityEntry("P1", "Choc", "L1", 10)
	_ = capacity.Add(capEntry)
	if err := capacity.Add(capEntry); err == nil {
		t.Error("Expected duplicate capacity to be rejected")
	}

	rates := RateTable{}
	rateEntry, _ := NewRateEntry("P1", "Choc", "L1", "A", 5)
	_ = rates.Add(rateEntry)
	if err := rates.Add(rateEntry); err == nil {
		t.Error("Expected duplicate rate to be rejected")
	}
}

func TestRateTable_RateOf(t *testing.T) {
	rates := RateTable{
		{Period: "P1", Category: "Choc", Line: "L1", Product: "A"}: 5,
		{Period: "P1", Category: "Choc", Line: "L2", Product: "A"}: 0,
	}

	tests := []struct {
		name     string
		key      RateKey
		wantRate float64
		wantOK   bool
	}{
		{"defined", RateKey{"P1", "Choc", "L1", "A"}, 5, true},
		{"zero treated as missing", RateKey{"P1", "Choc", "L2", "A"}, 0, false},
		{"absent", RateKey{"P1", "Choc", "L3", "A"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, ok := rates.RateOf(tt.key)
			if rate != tt.wantRate || ok != tt.wantOK {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tt.wantRate, tt.wantOK, rate, ok)
			}
		})
	}
}

func TestTables_CloneIsIndependent(t *testing.T) {
	original := CapacityTable{{Period: "P1", Category: "Choc", Line: "L1"}: 10}
	clone := original.Clone()
	clone[CapacityKey{Period: "P1", Category: "Choc", Line: "L2"}] = 5
	clone[CapacityKey{Period: "P1", Category: "Choc", Line: "L1"}] = 99

	if len(original) != 1 {
		t.Errorf("Expected original to keep 1 entry, got %d", len(original))
	}
	if original[CapacityKey{Period: "P1", Category: "Choc", Line: "L1"}] != 10 {
		t.Error("Expected original capacity to stay 10")
	}
}

func TestKeys_LexicographicOrder(t *testing.T) {
	rates := RateTable{
		{Period: "P2", Category: "A", Line: "L1", Product: "X"}: 1,
		{Period: "P1", Category: "B", Line: "L1", Product: "X"}: 1,
		{Period: "P1", Category: "A", Line: "L2", Product: "X"}: 1,
		{Period: "P1", Category: "A", Line: "L1", Product: "Y"}: 1,
		{Period: "P1", Category: "A", Line: "L1", Product: "X"}: 1,
	}

	keys := rates.Keys()
	expected := []RateKey{
		{"P1", "A", "L1", "X"},
		{"P1", "A", "L1", "Y"},
		{"P1", "A", "L2", "X"},
		{"P1", "B", "L1", "X"},
		{"P2", "A", "L1", "X"},
	}
	for i, key := range keys {
		if key != expected[i] {
			t.Errorf("Position %d: expected %v, got %v", i, expected[i], key)
		}
	}
}
