package calibration

import (
	"sort"

	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

// EscalationPolicy decides when a short-scale score must escalate to the
// full instrument it is a proxy for. Pure; thresholds come from tuning.
type EscalationPolicy struct {
	tuning *config.Store
}

// NewEscalationPolicy creates an escalation policy.
func NewEscalationPolicy(tuning *config.Store) *EscalationPolicy {
	return &EscalationPolicy{tuning: tuning}
}

// Evaluate emits at most one trigger per short scale whose score reached its
// threshold. A trigger only augments the next assessment the user is
// offered; it never changes today's set or cadence. Results are ordered by
// scale id so repeated identical inputs produce identical output.
func (p *EscalationPolicy) Evaluate(userID vo.UserID, date vo.Day, scaleScores map[string]float64) []EscalationTrigger {
	tuning := p.tuning.Current()
	var triggers []EscalationTrigger
	for scale, score := range scaleScores {
		rule, ok := tuning.Escalations[scale]
		if !ok {
			continue
		}
		if score >= rule.Threshold {
			triggers = append(triggers, EscalationTrigger{
				UserID:      userID,
				ScaleID:     scale,
				Score:       score,
				TargetScale: rule.Target,
				Confidence:  rule.Confidence,
				Date:        date,
			})
		}
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i].ScaleID < triggers[j].ScaleID })
	return triggers
}
