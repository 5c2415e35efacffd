package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

func TestEscalationThresholdBoundary(t *testing.T) {
	p := NewEscalationPolicy(config.NewStore(config.DefaultTuning()))
	user := vo.NewUserID()
	day := testDay(t, "2024-06-01")

	// GAD-2 threshold is 3: no trigger one point below, trigger at the
	// threshold itself.
	assert.Empty(t, p.Evaluate(user, day, map[string]float64{"gad2": 2}))

	triggers := p.Evaluate(user, day, map[string]float64{"gad2": 3})
	require.Len(t, triggers, 1)
	assert.Equal(t, "gad2", triggers[0].ScaleID)
	assert.Equal(t, "gad7", triggers[0].TargetScale)
	assert.Equal(t, float64(3), triggers[0].Score)
	assert.Equal(t, 0.85, triggers[0].Confidence)
}

func TestEscalationAtMostOnePerScale(t *testing.T) {
	p := NewEscalationPolicy(config.NewStore(config.DefaultTuning()))
	user := vo.NewUserID()
	day := testDay(t, "2024-06-01")

	scores := map[string]float64{"gad2": 6, "phq2": 5, "stress": 3}

	triggers := p.Evaluate(user, day, scores)
	require.Len(t, triggers, 2, "stress has no escalation rule")
	assert.Equal(t, "gad2", triggers[0].ScaleID)
	assert.Equal(t, "phq2", triggers[1].ScaleID)

	// Repeated identical inputs produce logically identical triggers.
	assert.Equal(t, triggers, p.Evaluate(user, day, scores))
}

func TestEscalationIgnoresUnconfiguredScales(t *testing.T) {
	p := NewEscalationPolicy(config.NewStore(config.DefaultTuning()))

	triggers := p.Evaluate(vo.NewUserID(), testDay(t, "2024-06-01"), map[string]float64{
		"sleep_quality": 100,
	})
	assert.Empty(t, triggers)
}
