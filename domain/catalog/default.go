package catalog

// severity scale used by most choice questions: 0 = not at all, 3 = nearly
// every day, matching the response format of the clinical short scales.
func severityOptions() []ChoiceOption {
	return []ChoiceOption{
		{Value: 0, Label: "Not at all"},
		{Value: 1, Label: "Several days"},
		{Value: 2, Label: "More than half the days"},
		{Value: 3, Label: "Nearly every day"},
	}
}

// Default returns the built-in question catalog. Deployments can replace it
// with a YAML catalog; the shipped one covers every goal tag.
func Default() *Catalog {
	c := &Catalog{
		Version: "2024-06",
		Questions: []QuestionDefinition{
			// Anchors, asked every day regardless of goals.
			{
				ID:       "sleep_hours",
				Category: CategoryAnchor,
				Prompt:   "How many hours did you sleep last night?",
				Input:    InputShape{Kind: InputSlider, Min: 0, Max: 12},
				Scale:    "sleep_duration",
			},
			{
				ID:       "stress_level",
				Category: CategoryAnchor,
				Prompt:   "How stressed did you feel today?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Calm"},
					{Value: 1, Label: "A little tense"},
					{Value: 2, Label: "Stressed"},
					{Value: 3, Label: "Overwhelmed"},
				}},
				Scale: "stress",
			},

			// Sleep goal.
			{
				ID:       "sleep_quality",
				Category: CategoryAdaptive,
				Goal:     GoalSleep,
				Prompt:   "How would you rate the quality of your sleep?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Restful"},
					{Value: 1, Label: "Okay"},
					{Value: 2, Label: "Restless"},
					{Value: 3, Label: "Barely slept"},
				}},
				Scale: "sleep_quality",
			},
			{
				ID:       "sleep_wake_refreshed",
				Category: CategoryAdaptive,
				Goal:     GoalSleep,
				Prompt:   "Did you wake up feeling refreshed?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Yes"},
					{Value: 1, Label: "Somewhat"},
					{Value: 2, Label: "No"},
				}},
			},

			// Stress goal. The two GAD-7 lead items form the GAD-2 short
			// scale, which can escalate to the full GAD-7.
			{
				ID:       "gad7_q1",
				Category: CategoryAdaptive,
				Goal:     GoalStress,
				Prompt:   "Feeling nervous, anxious, or on edge?",
				Input:    InputShape{Kind: InputChoice, Options: severityOptions()},
				Scale:    "gad2",
			},
			{
				ID:       "gad7_q2",
				Category: CategoryAdaptive,
				Goal:     GoalStress,
				Prompt:   "Not being able to stop or control worrying?",
				Input:    InputShape{Kind: InputChoice, Options: severityOptions()},
				Scale:    "gad2",
			},

			// Energy goal. PHQ-2 short scale, escalates to PHQ-9.
			{
				ID:       "phq9_q1",
				Category: CategoryAdaptive,
				Goal:     GoalEnergy,
				Prompt:   "Little interest or pleasure in doing things?",
				Input:    InputShape{Kind: InputChoice, Options: severityOptions()},
				Scale:    "phq2",
			},
			{
				ID:       "phq9_q2",
				Category: CategoryAdaptive,
				Goal:     GoalEnergy,
				Prompt:   "Feeling down, depressed, or hopeless?",
				Input:    InputShape{Kind: InputChoice, Options: severityOptions()},
				Scale:    "phq2",
			},

			// Weight goal.
			{
				ID:       "appetite_change",
				Category: CategoryAdaptive,
				Goal:     GoalWeight,
				Prompt:   "Was your appetite today unusual for you?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Normal"},
					{Value: 1, Label: "Somewhat off"},
					{Value: 2, Label: "Very different"},
				}},
			},
			{
				ID:       "meals_regular",
				Category: CategoryAdaptive,
				Goal:     GoalWeight,
				Prompt:   "Did you eat regular meals today?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Yes"},
					{Value: 1, Label: "Mostly"},
					{Value: 2, Label: "No"},
				}},
			},

			// Fitness goal.
			{
				ID:       "activity_minutes",
				Category: CategoryAdaptive,
				Goal:     GoalFitness,
				Prompt:   "How many minutes were you physically active today?",
				Input:    InputShape{Kind: InputSlider, Min: 0, Max: 180},
			},
			{
				ID:       "activity_intensity",
				Category: CategoryAdaptive,
				Goal:     GoalFitness,
				Prompt:   "How intense was your activity?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "None"},
					{Value: 1, Label: "Light"},
					{Value: 2, Label: "Moderate"},
					{Value: 3, Label: "Vigorous"},
				}},
			},

			// Evolution items, unlocked by stability tenure.
			{
				ID:       "energy_trend",
				Category: CategoryEvolution,
				Prompt:   "Compared with last week, how is your energy?",
				Input: InputShape{Kind: InputChoice, Options: []ChoiceOption{
					{Value: 0, Label: "Better"},
					{Value: 1, Label: "The same"},
					{Value: 2, Label: "Worse"},
				}},
			},
			{
				ID:              "phq9_q9",
				Category:        CategoryEvolution,
				Prompt:          "Thoughts that you would be better off dead, or of hurting yourself?",
				Input:           InputShape{Kind: InputChoice, Options: severityOptions()},
				Scale:           "phq9_q9",
				SafetyCritical:  true,
				SafetyThreshold: 1,
			},
			{
				ID:       "mood_reflection",
				Category: CategoryEvolution,
				Prompt:   "Anything you want to note about today?",
				Input:    InputShape{Kind: InputText},
			},
		},
	}
	c.buildIndex()
	return c
}
