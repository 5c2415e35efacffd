package calibration

import (
	"fmt"

	"calibrate-backend/domain/catalog"
	"calibrate-backend/domain/config"
	appErrors "calibrate-backend/pkg/errors"
)

// componentSleepDuration is the derived component fed by the sleep-hours
// banding rather than by a raw scale sum.
const componentSleepDuration = "sleep_duration"

// Scorer validates raw answers against the catalog and folds them into
// sub-scores, the composite daily index, and the safety-flag vector. Pure;
// no I/O.
type Scorer struct {
	catalog *catalog.Catalog
	tuning  *config.Store
}

// NewScorer creates a response scorer.
func NewScorer(cat *catalog.Catalog, tuning *config.Store) *Scorer {
	return &Scorer{catalog: cat, tuning: tuning}
}

// Catalog exposes the catalog the scorer validates against.
func (s *Scorer) Catalog() *catalog.Catalog {
	return s.catalog
}

// Validate checks every answer against its question's declared input shape.
// An answer outside its domain is rejected, never clamped. Nothing may be
// persisted for a submission that fails validation.
func (s *Scorer) Validate(answers map[string]Answer) error {
	if len(answers) == 0 {
		return appErrors.NewValidationError("submission contains no answers")
	}
	for id, a := range answers {
		q, ok := s.catalog.Get(id)
		if !ok {
			return appErrors.NewValidationError(fmt.Sprintf("unknown question id %q", id))
		}
		if err := validateAnswer(q, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAnswer(q *catalog.QuestionDefinition, a Answer) error {
	switch q.Input.Kind {
	case catalog.InputSlider:
		if a.Value < q.Input.Min || a.Value > q.Input.Max {
			return appErrors.NewValidationError(
				fmt.Sprintf("answer %v for %q is outside [%v, %v]", a.Value, q.ID, q.Input.Min, q.Input.Max))
		}
	case catalog.InputChoice:
		for _, opt := range q.Input.Options {
			if opt.Value == a.Value {
				return nil
			}
		}
		return appErrors.NewValidationError(
			fmt.Sprintf("answer %v for %q does not match any option", a.Value, q.ID))
	case catalog.InputText:
		if a.Text == "" {
			return appErrors.NewValidationError(fmt.Sprintf("text answer for %q is empty", q.ID))
		}
	}
	return nil
}

// Score computes the ScoreResult for a batch of validated answers. It never
// fails: a structurally valid submission always produces a complete result,
// including an empty safety-flag vector when nothing triggers.
func (s *Scorer) Score(answers map[string]Answer) ScoreResult {
	result := ScoreResult{
		ScaleScores: make(map[string]float64),
		SafetyFlags: []string{},
	}

	// The safety pass runs first and unconditionally, over every answer
	// whose question is flagged, whatever else the submission contains.
	for _, q := range s.catalog.Questions {
		a, ok := answers[q.ID]
		if !ok || !q.SafetyCritical {
			continue
		}
		if a.Value >= q.SafetyThreshold {
			result.SafetyFlags = append(result.SafetyFlags, q.ID)
		}
	}

	for id, a := range answers {
		q, ok := s.catalog.Get(id)
		if !ok || q.Scale == "" || q.Input.Kind == catalog.InputText {
			continue
		}
		result.ScaleScores[q.Scale] += a.Value
	}

	s.applyCompositeIndex(&result, s.tuning.Current())
	return result
}

// applyCompositeIndex folds the scored components into the 0-100 index.
// Each component's raw total is normalized by its configured maximum and
// weighted; weights renormalize over the components actually present so a
// submission without, say, sleep answers is not penalized for the gap.
func (s *Scorer) applyCompositeIndex(result *ScoreResult, tuning *config.Tuning) {
	components := make(map[string]float64)
	for name, raw := range result.ScaleScores {
		if _, weighted := tuning.IndexWeights[name]; weighted {
			if name == componentSleepDuration {
				components[name] = sleepDurationScore(raw, tuning)
				continue
			}
			components[name] = raw
		}
	}

	var weightSum, risk float64
	for name, value := range components {
		max := tuning.ComponentMax[name]
		if max <= 0 {
			continue
		}
		w := tuning.IndexWeights[name]
		normalized := value / max
		if normalized > 1 {
			normalized = 1
		}
		risk += w * normalized
		weightSum += w
	}
	if weightSum == 0 {
		return
	}

	index := 100 * (1 - risk/weightSum)
	if index < 0 {
		index = 0
	}
	result.CompositeIndex = index
	result.HasIndex = true
}

// sleepDurationScore bands hours slept into a risk score: both very short
// and very long sleep score worse than the 7-9 hour range.
func sleepDurationScore(hours float64, tuning *config.Tuning) float64 {
	for _, band := range tuning.SleepBands {
		if hours <= band.UpTo {
			return band.Score
		}
	}
	if n := len(tuning.SleepBands); n > 0 {
		return tuning.SleepBands[n-1].Score
	}
	return 0
}
