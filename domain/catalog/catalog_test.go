package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Len(t, c.Anchors(), 2)
	assert.NotEmpty(t, c.Evolution())
	for _, goal := range KnownGoalTags {
		assert.NotEmpty(t, c.AdaptiveFor(goal), "goal %s has no adaptive items", goal)
	}
}

func TestDefaultCatalogSafetyItems(t *testing.T) {
	c := Default()

	q, ok := c.Get("phq9_q9")
	require.True(t, ok)
	assert.True(t, q.SafetyCritical)
	assert.Equal(t, float64(1), q.SafetyThreshold)
}

func TestLoadYAML(t *testing.T) {
	data := []byte(`
version: "test"
questions:
  - id: sleep_hours
    category: anchor
    prompt: "Hours slept?"
    input:
      kind: slider
      min: 0
      max: 12
    scale: sleep_duration
  - id: mood
    category: adaptive
    goal: stress
    prompt: "Mood?"
    input:
      kind: choice
      options:
        - {value: 0, label: "Good"}
        - {value: 1, label: "Bad"}
`)

	c, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Version)
	assert.Len(t, c.Questions, 2)

	q, ok := c.Get("mood")
	require.True(t, ok)
	assert.Equal(t, GoalStress, q.Goal)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate ids",
			yaml: `
questions:
  - {id: a, category: anchor, input: {kind: slider, min: 0, max: 1}}
  - {id: a, category: anchor, input: {kind: slider, min: 0, max: 1}}
`,
		},
		{
			name: "anchor with goal tag",
			yaml: `
questions:
  - {id: a, category: anchor, goal: sleep, input: {kind: slider, min: 0, max: 1}}
`,
		},
		{
			name: "adaptive with unknown goal",
			yaml: `
questions:
  - {id: a, category: anchor, input: {kind: slider, min: 0, max: 1}}
  - {id: b, category: adaptive, goal: mindfulness, input: {kind: slider, min: 0, max: 1}}
`,
		},
		{
			name: "slider with inverted bounds",
			yaml: `
questions:
  - {id: a, category: anchor, input: {kind: slider, min: 5, max: 5}}
`,
		},
		{
			name: "choice with one option",
			yaml: `
questions:
  - {id: a, category: anchor, input: {kind: choice, options: [{value: 0, label: x}]}}
`,
		},
		{
			name: "scored text question",
			yaml: `
questions:
  - {id: a, category: anchor, input: {kind: text}, scale: mood}
`,
		},
		{
			name: "no anchors",
			yaml: `
questions:
  - {id: a, category: adaptive, goal: sleep, input: {kind: slider, min: 0, max: 1}}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
