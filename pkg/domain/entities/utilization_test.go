package entities

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestUtilizationRatio_Band(t *testing.T) {
	tests := []struct {
		ratio float64
		want  UtilizationBand
	}{
		{math.NaN(), Idle},
		{0.5, Overcommitted},
		{0.999, Overcommitted},
		{1, Balanced},
		{1.05, Balanced},
		{1.1, Slack},
		{4, Slack},
	}

	for _, tt := range tests {
		u := UtilizationRatio{Ratio: tt.ratio}
		if got := u.Band(); got != tt.want {
			t.Errorf("Ratio %v: expected band %s, got %s", tt.ratio, tt.want, got)
		}
	}
}

func TestUtilizationRatio_JSONUndefinedRatio(t *testing.T) {
	u := UtilizationRatio{Period: "P1", Category: "Choc", Line: "L1", Capacity: 10, Ratio: math.NaN()}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Failed to marshal undefined ratio: %v", err)
	}
	if !strings.Contains(string(data), `"capacity_demand_ratio":null`) {
		t.Errorf("Expected null ratio in %s", data)
	}
	if !strings.Contains(string(data), `"band":"Idle"`) {
		t.Errorf("Expected Idle band in %s", data)
	}

	var decoded UtilizationRatio
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Defined() {
		t.Errorf("Expected decoded ratio to be undefined, got %v", decoded.Ratio)
	}
	if decoded.Key() != u.Key() {
		t.Errorf("Expected key %v, got %v", u.Key(), decoded.Key())
	}
}

func TestUtilizationRatio_JSONDefinedRatio(t *testing.T) {
	u := UtilizationRatio{Period: "P1", Category: "Choc", Line: "L1", Capacity: 10, RealizedHours: 8, Ratio: 1.25}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Failed to marshal ratio: %v", err)
	}

	var decoded UtilizationRatio
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Ratio != 1.25 {
		t.Errorf("Expected ratio 1.25, got %v", decoded.Ratio)
	}
}

func TestNewRun(t *testing.T) {
	run, err := NewRun("Simulation X", "capacity_bounded", time.Time{})
	if err != nil {
		t.Fatalf("Expected valid run: %v", err)
	}
	if run.CreatedAt.IsZero() {
		t.Error("Expected creation time to default to now")
	}

	other, _ := NewRun("Simulation X", "capacity_bounded", time.Time{})
	if run.ID == other.ID {
		t.Error("Expected distinct IDs for runs with the same name")
	}

	if _, err := NewRun("", "capacity_bounded", time.Time{}); err == nil {
		t.Error("Expected empty run name to be rejected")
	}
}
