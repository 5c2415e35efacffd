package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tuning holds every configurable business rule of the calibration engine:
// index weights, stability bands, escalation thresholds, and cadence
// intervals. Algorithms take a Tuning at construction so tests can run with
// alternate thresholds.
type Tuning struct {
	// Index weights combine normalized component scores into the 0-100
	// composite index. Components not listed contribute nothing.
	IndexWeights map[string]float64 `yaml:"index_weights"`

	// ComponentMax is the worst possible raw value per scored component,
	// used to normalize before weighting.
	ComponentMax map[string]float64 `yaml:"component_max"`

	// SleepBands maps hours slept to a sleep-duration risk score. Bands are
	// evaluated in order; the first band whose UpTo is >= the value wins.
	SleepBands []SleepBand `yaml:"sleep_bands"`

	// Stability bands on the composite index. Index >= StableMin counts as a
	// stable day; index < RedFlagMax forces instability.
	StableMin  float64 `yaml:"stable_min"`
	RedFlagMax float64 `yaml:"red_flag_max"`

	// MinStableSlope bounds the rolling-window trend: a day only counts as
	// stable while the index slope per day stays at or above it, so a
	// steadily declining index cannot extend a streak.
	MinStableSlope float64 `yaml:"min_stable_slope"`

	// StableDayThreshold is the streak length that moves a user from
	// STABILIZING to STABLE.
	StableDayThreshold int `yaml:"stable_day_threshold"`

	// WindowSize is the ring buffer length of retained composite indices.
	WindowSize int `yaml:"window_size"`

	// EvolutionInterval is the tenure milestone, in stable days, that
	// unlocks each additional evolution question.
	EvolutionInterval int `yaml:"evolution_interval"`

	// AdaptivePerGoal caps adaptive items per active goal.
	AdaptivePerGoal int `yaml:"adaptive_per_goal"`

	// Escalations maps a short scale to its full-instrument escalation rule.
	Escalations map[string]EscalationRule `yaml:"escalations"`

	// Cadence intervals in days, per cadence class.
	CadenceIntervals map[string]int `yaml:"cadence_intervals"`
}

// SleepBand is one [previous band, UpTo] hours bucket and its risk score.
type SleepBand struct {
	UpTo  float64 `yaml:"up_to"`
	Score float64 `yaml:"score"`
}

// EscalationRule routes a short scale to its full instrument.
type EscalationRule struct {
	Threshold  float64 `yaml:"threshold"`
	Target     string  `yaml:"target"`
	Confidence float64 `yaml:"confidence"`
}

// DefaultTuning returns the shipped tuning values.
func DefaultTuning() *Tuning {
	return &Tuning{
		IndexWeights: map[string]float64{
			"gad2":           0.35,
			"stress":         0.25,
			"sleep_quality":  0.20,
			"sleep_duration": 0.20,
		},
		ComponentMax: map[string]float64{
			"gad2":           6,
			"stress":         3,
			"sleep_quality":  3,
			"sleep_duration": 2,
		},
		SleepBands: []SleepBand{
			{UpTo: 5.9, Score: 2},
			{UpTo: 6.9, Score: 1},
			{UpTo: 9, Score: 0},
			{UpTo: 24, Score: 1},
		},
		StableMin:          70,
		RedFlagMax:         30,
		MinStableSlope:     -1.5,
		StableDayThreshold: 14,
		WindowSize:         14,
		EvolutionInterval:  7,
		AdaptivePerGoal:    2,
		Escalations: map[string]EscalationRule{
			"gad2": {Threshold: 3, Target: "gad7", Confidence: 0.85},
			"phq2": {Threshold: 3, Target: "phq9", Confidence: 0.85},
		},
		CadenceIntervals: map[string]int{
			"daily":           1,
			"every_other_day": 2,
			"weekly":          7,
			"biweekly":        14,
		},
	}
}

// LoadTuning parses a YAML tuning document over the defaults, so a partial
// file only overrides what it names.
func LoadTuning(data []byte) (*Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the configuration is valid
func (t *Tuning) Validate() error {
	if t.StableDayThreshold <= 0 {
		return fmt.Errorf("stable_day_threshold must be positive, got %d", t.StableDayThreshold)
	}
	if t.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", t.WindowSize)
	}
	if t.EvolutionInterval <= 0 {
		return fmt.Errorf("evolution_interval must be positive, got %d", t.EvolutionInterval)
	}
	if t.AdaptivePerGoal <= 0 {
		return fmt.Errorf("adaptive_per_goal must be positive, got %d", t.AdaptivePerGoal)
	}
	if t.StableMin <= t.RedFlagMax {
		return fmt.Errorf("stable_min (%v) must exceed red_flag_max (%v)", t.StableMin, t.RedFlagMax)
	}
	if t.StableMin > 100 || t.RedFlagMax < 0 {
		return fmt.Errorf("stability bands must lie within the 0-100 index range")
	}
	for scale, rule := range t.Escalations {
		if rule.Target == "" {
			return fmt.Errorf("escalation rule for %q has no target instrument", scale)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return fmt.Errorf("escalation rule for %q has confidence %v outside [0, 1]", scale, rule.Confidence)
		}
	}
	for class, days := range t.CadenceIntervals {
		if days <= 0 {
			return fmt.Errorf("cadence interval for %q must be positive, got %d", class, days)
		}
	}
	var sum float64
	for _, w := range t.IndexWeights {
		if w < 0 {
			return fmt.Errorf("index weights must be non-negative")
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("index weights must not all be zero")
	}
	return nil
}
