package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calibrate-backend/domain/catalog"
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewGenerator(catalog.Default(), config.NewStore(config.DefaultTuning()))
}

func testDay(t *testing.T, s string) vo.Day {
	t.Helper()
	d, err := vo.NewDayFromString(s)
	require.NoError(t, err)
	return d
}

func profileWith(tags ...catalog.GoalTag) GoalProfile {
	p := GoalProfile{UserID: vo.NewUserID()}
	for i, tag := range tags {
		p.Goals = append(p.Goals, Goal{Tag: tag, Priority: i + 1})
	}
	return p
}

func TestGenerateAnchorsOnlyForEmptyProfile(t *testing.T) {
	g := newTestGenerator(t)

	set := g.Generate(testDay(t, "2024-06-01"), profileWith(), 0)

	require.Len(t, set.Questions, 2)
	assert.Equal(t, []string{"sleep_hours", "stress_level"}, set.IDs())
}

func TestGenerateTwoGoalsExampleShape(t *testing.T) {
	g := newTestGenerator(t)

	set := g.Generate(testDay(t, "2024-06-01"), profileWith(catalog.GoalSleep, catalog.GoalStress), 0)

	// 2 anchors + 2 sleep items + 2 stress items, no evolution items.
	assert.Equal(t, []string{
		"sleep_hours", "stress_level",
		"sleep_quality", "sleep_wake_refreshed",
		"gad7_q1", "gad7_q2",
	}, set.IDs())
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newTestGenerator(t)
	profile := profileWith(catalog.GoalStress, catalog.GoalEnergy, catalog.GoalFitness)
	day := testDay(t, "2024-06-01")

	first := g.Generate(day, profile, 7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.IDs(), g.Generate(day, profile, 7).IDs())
	}
}

func TestGenerateRespectsGoalPriority(t *testing.T) {
	g := newTestGenerator(t)
	profile := GoalProfile{Goals: []Goal{
		{Tag: catalog.GoalStress, Priority: 2},
		{Tag: catalog.GoalSleep, Priority: 1},
	}}

	set := g.Generate(testDay(t, "2024-06-01"), profile, 0)

	ids := set.IDs()
	assert.Equal(t, "sleep_quality", ids[2], "higher-priority goal items come first")
}

func TestGenerateEvolutionUnlocks(t *testing.T) {
	g := newTestGenerator(t)
	profile := profileWith(catalog.GoalSleep)
	evolutionSize := len(catalog.Default().Evolution())

	tests := []struct {
		days int
		want int
	}{
		{0, 0},
		{6, 0},
		{7, 1},
		{8, 0},
		{14, 2},
		{21, 3},
		{70, evolutionSize}, // capped at catalog size
	}
	for _, tt := range tests {
		set := g.Generate(testDay(t, "2024-06-01"), profile, tt.days)
		got := 0
		for _, q := range set.Questions {
			if q.Category == catalog.CategoryEvolution {
				got++
			}
		}
		assert.Equal(t, tt.want, got, "stable days = %d", tt.days)
	}
}

func TestGenerateAnchorInvariant(t *testing.T) {
	g := newTestGenerator(t)

	for _, days := range []int{0, 1, 7, 14, 100} {
		set := g.Generate(testDay(t, "2024-06-01"), profileWith(catalog.KnownGoalTags...), days)
		assert.True(t, set.Contains("sleep_hours"))
		assert.True(t, set.Contains("stress_level"))
		assert.NotEmpty(t, set.Questions)
	}
}

func TestGenerateNeverDuplicates(t *testing.T) {
	g := newTestGenerator(t)
	profile := GoalProfile{Goals: []Goal{
		{Tag: catalog.GoalSleep, Priority: 1},
		{Tag: catalog.GoalSleep, Priority: 2},
	}}

	set := g.Generate(testDay(t, "2024-06-01"), profile, 14)

	seen := map[string]bool{}
	for _, id := range set.IDs() {
		assert.False(t, seen[id], "duplicate question %s", id)
		seen[id] = true
	}
}

func TestDiff(t *testing.T) {
	g := newTestGenerator(t)
	day := testDay(t, "2024-06-01")

	yesterday := g.Generate(day, profileWith(catalog.GoalSleep), 0)
	today := g.Generate(day.AddDays(1), profileWith(catalog.GoalStress), 0)

	diff := Diff(yesterday, today)
	assert.Equal(t, []string{"gad7_q1", "gad7_q2"}, diff.Added)
	assert.Equal(t, []string{"sleep_quality", "sleep_wake_refreshed"}, diff.Removed)

	same := Diff(today, today)
	assert.Empty(t, same.Added)
	assert.Empty(t, same.Removed)
}
