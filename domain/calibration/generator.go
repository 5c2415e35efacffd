package calibration

import (
	"calibrate-backend/domain/catalog"
	"calibrate-backend/domain/config"
	vo "calibrate-backend/domain/core/valueobjects"
)

// Generator builds the daily question set from a goal profile and the user's
// stability tenure. It is a pure function of its inputs: the same profile,
// tenure, and catalog always yield the same set.
type Generator struct {
	catalog *catalog.Catalog
	tuning  *config.Store
}

// NewGenerator creates a question set generator.
func NewGenerator(cat *catalog.Catalog, tuning *config.Store) *Generator {
	return &Generator{catalog: cat, tuning: tuning}
}

// Generate assembles the set for one day: every anchor, up to the configured
// number of adaptive items per active goal in catalog order, and one
// evolution item per completed tenure interval once the streak sits exactly
// on a milestone. The result is ordered, de-duplicated, and never empty.
func (g *Generator) Generate(date vo.Day, profile GoalProfile, consecutiveStableDays int) QuestionSet {
	tuning := g.tuning.Current()
	set := QuestionSet{Date: date}
	seen := make(map[string]bool)

	add := func(qs []catalog.QuestionDefinition, limit int) {
		added := 0
		for _, q := range qs {
			if limit > 0 && added >= limit {
				return
			}
			if seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			set.Questions = append(set.Questions, q)
			added++
		}
	}

	add(g.catalog.Anchors(), 0)

	for _, tag := range profile.ActiveTags() {
		add(g.catalog.AdaptiveFor(tag), tuning.AdaptivePerGoal)
	}

	if n := g.evolutionCount(consecutiveStableDays, tuning); n > 0 {
		add(g.catalog.Evolution(), n)
	}

	return set
}

// evolutionCount returns how many evolution items the streak unlocks. Items
// appear only when the streak is a positive multiple of the interval, one
// per completed interval, capped by the evolution catalog size.
func (g *Generator) evolutionCount(consecutiveStableDays int, tuning *config.Tuning) int {
	interval := tuning.EvolutionInterval
	if consecutiveStableDays <= 0 || consecutiveStableDays%interval != 0 {
		return 0
	}
	n := consecutiveStableDays / interval
	if max := len(g.catalog.Evolution()); n > max {
		n = max
	}
	return n
}

// Diff reports what changed between yesterday's set and today's. Used by the
// UI to highlight new questions.
func Diff(previous, current QuestionSet) SetDiff {
	diff := SetDiff{Added: []string{}, Removed: []string{}}
	for _, q := range current.Questions {
		if !previous.Contains(q.ID) {
			diff.Added = append(diff.Added, q.ID)
		}
	}
	for _, q := range previous.Questions {
		if !current.Contains(q.ID) {
			diff.Removed = append(diff.Removed, q.ID)
		}
	}
	return diff
}
