package entities

import (
	"encoding/json"
	"math"
)

// UtilizationBand classifies a capacity/demand ratio
type UtilizationBand int

const (
	Idle UtilizationBand = iota
	Overcommitted
	Balanced
	Slack
)

// SlackThreshold is the ratio at and above which a line counts as having slack
const SlackThreshold = 1.1

// String method for UtilizationBand enum
func (b UtilizationBand) String() string {
	switch b {
	case Idle:
		return "Idle"
	case Overcommitted:
		return "Overcommitted"
	case Balanced:
		return "Balanced"
	case Slack:
		return "Slack"
	default:
		return "Unknown"
	}
}

// UtilizationRatio reports capacity against the hours a line actually spends
type UtilizationRatio struct {
	Period        Period
	Category      Category
	Line          Line
	Capacity      float64
	RealizedHours float64
	Ratio         float64 // NaN when RealizedHours is zero
}

// Key returns the capacity key the ratio belongs to
func (u UtilizationRatio) Key() CapacityKey {
	return CapacityKey{Period: u.Period, Category: u.Category, Line: u.Line}
}

// Defined reports whether the ratio has a value
func (u UtilizationRatio) Defined() bool {
	return !math.IsNaN(u.Ratio)
}

// Band classifies the ratio: below 1 the line is overcommitted, from 1 up to
// SlackThreshold it is balanced, above that it has slack
func (u UtilizationRatio) Band() UtilizationBand {
	switch {
	case !u.Defined():
		return Idle
	case u.Ratio < 1:
		return Overcommitted
	case u.Ratio >= SlackThreshold:
		return Slack
	default:
		return Balanced
	}
}

// MarshalJSON writes an undefined ratio as null
func (u UtilizationRatio) MarshalJSON() ([]byte, error) {
	var ratio *float64
	if u.Defined() {
		r := u.Ratio
		ratio = &r
	}
	return json.Marshal(struct {
		Period        Period   `json:"period"`
		Category      Category `json:"category"`
		Line          Line     `json:"line"`
		Capacity      float64  `json:"capacity_hours"`
		RealizedHours float64  `json:"realized_hours"`
		Ratio         *float64 `json:"capacity_demand_ratio"`
		Band          string   `json:"band"`
	}{u.Period, u.Category, u.Line, u.Capacity, u.RealizedHours, ratio, u.Band().String()})
}

// UnmarshalJSON restores a null ratio as NaN
func (u *UtilizationRatio) UnmarshalJSON(data []byte) error {
	var raw struct {
		Period        Period   `json:"period"`
		Category      Category `json:"category"`
		Line          Line     `json:"line"`
		Capacity      float64  `json:"capacity_hours"`
		RealizedHours float64  `json:"realized_hours"`
		Ratio         *float64 `json:"capacity_demand_ratio"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UtilizationRatio{
		Period:        raw.Period,
		Category:      raw.Category,
		Line:          raw.Line,
		Capacity:      raw.Capacity,
		RealizedHours: raw.RealizedHours,
		Ratio:         math.NaN(),
	}
	if raw.Ratio != nil {
		u.Ratio = *raw.Ratio
	}
	return nil
}
