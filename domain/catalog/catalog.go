package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	appErrors "calibrate-backend/pkg/errors"
)

// GoalTag identifies an area of focus a user can work on.
type GoalTag string

// Known goal tags
const (
	GoalSleep   GoalTag = "sleep"
	GoalEnergy  GoalTag = "energy"
	GoalStress  GoalTag = "stress"
	GoalWeight  GoalTag = "weight"
	GoalFitness GoalTag = "fitness"
)

// KnownGoalTags lists every valid goal tag.
var KnownGoalTags = []GoalTag{GoalSleep, GoalEnergy, GoalStress, GoalWeight, GoalFitness}

// IsValidGoalTag reports whether the tag is part of the fixed enumeration.
func IsValidGoalTag(tag GoalTag) bool {
	for _, t := range KnownGoalTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Category classifies how a question enters a daily set.
type Category string

// Question categories
const (
	CategoryAnchor    Category = "anchor"
	CategoryAdaptive  Category = "adaptive"
	CategoryEvolution Category = "evolution"
)

// InputKind is the shape of answer a question accepts.
type InputKind string

// Input kinds
const (
	InputSlider InputKind = "slider"
	InputChoice InputKind = "choice"
	InputText   InputKind = "text"
)

// ChoiceOption is one selectable answer with its scored value.
type ChoiceOption struct {
	Value float64 `yaml:"value" json:"value"`
	Label string  `yaml:"label" json:"label"`
}

// InputShape declares the answer domain for a question. Slider answers must
// land in [Min, Max]; choice answers must match one option's value exactly;
// text answers are accepted verbatim and never scored.
type InputShape struct {
	Kind    InputKind      `yaml:"kind" json:"kind"`
	Min     float64        `yaml:"min,omitempty" json:"min,omitempty"`
	Max     float64        `yaml:"max,omitempty" json:"max,omitempty"`
	Options []ChoiceOption `yaml:"options,omitempty" json:"options,omitempty"`
}

// QuestionDefinition is an immutable catalog entry.
type QuestionDefinition struct {
	ID       string     `yaml:"id" json:"id"`
	Category Category   `yaml:"category" json:"category"`
	Goal     GoalTag    `yaml:"goal,omitempty" json:"goal,omitempty"`
	Prompt   string     `yaml:"prompt" json:"prompt"`
	Input    InputShape `yaml:"input" json:"input"`
	// Scale names the short-scale grouping this question's value is summed
	// into, e.g. gad2. Empty for unscored questions.
	Scale string `yaml:"scale,omitempty" json:"scale,omitempty"`
	// SafetyCritical questions are checked against SafetyThreshold on every
	// submission, independent of all other scoring.
	SafetyCritical  bool    `yaml:"safety_critical,omitempty" json:"safety_critical,omitempty"`
	SafetyThreshold float64 `yaml:"safety_threshold,omitempty" json:"safety_threshold,omitempty"`
}

// Catalog is a versioned, validated set of question definitions. Catalogs are
// loaded once and treated as immutable afterwards.
type Catalog struct {
	Version   string               `yaml:"version" json:"version"`
	Questions []QuestionDefinition `yaml:"questions" json:"questions"`

	byID map[string]*QuestionDefinition
}

// Load parses and validates a YAML catalog document.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, appErrors.NewValidationError("catalog is not valid YAML").WithCause(err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.buildIndex()
	return &c, nil
}

// Validate checks the structural invariants of the catalog.
func (c *Catalog) Validate() error {
	if len(c.Questions) == 0 {
		return appErrors.NewValidationError("catalog has no questions")
	}

	seen := make(map[string]bool, len(c.Questions))
	anchors := 0
	for i := range c.Questions {
		q := &c.Questions[i]
		if q.ID == "" {
			return appErrors.NewValidationError("catalog question missing id")
		}
		if seen[q.ID] {
			return appErrors.NewValidationError(fmt.Sprintf("duplicate question id %q", q.ID))
		}
		seen[q.ID] = true

		switch q.Category {
		case CategoryAnchor:
			anchors++
			if q.Goal != "" {
				return appErrors.NewValidationError(fmt.Sprintf("anchor question %q must not carry a goal tag", q.ID))
			}
		case CategoryAdaptive:
			if !IsValidGoalTag(q.Goal) {
				return appErrors.NewValidationError(fmt.Sprintf("adaptive question %q has unknown goal tag %q", q.ID, q.Goal))
			}
		case CategoryEvolution:
			// Evolution items are goal-independent.
		default:
			return appErrors.NewValidationError(fmt.Sprintf("question %q has unknown category %q", q.ID, q.Category))
		}

		switch q.Input.Kind {
		case InputSlider:
			if q.Input.Min >= q.Input.Max {
				return appErrors.NewValidationError(fmt.Sprintf("slider question %q has invalid bounds [%v, %v]", q.ID, q.Input.Min, q.Input.Max))
			}
		case InputChoice:
			if len(q.Input.Options) < 2 {
				return appErrors.NewValidationError(fmt.Sprintf("choice question %q needs at least two options", q.ID))
			}
		case InputText:
			if q.Scale != "" {
				return appErrors.NewValidationError(fmt.Sprintf("text question %q cannot belong to a scored scale", q.ID))
			}
			if q.SafetyCritical {
				return appErrors.NewValidationError(fmt.Sprintf("text question %q cannot be safety-critical", q.ID))
			}
		default:
			return appErrors.NewValidationError(fmt.Sprintf("question %q has unknown input kind %q", q.ID, q.Input.Kind))
		}
	}

	if anchors == 0 {
		return appErrors.NewValidationError("catalog must contain at least one anchor question")
	}
	return nil
}

func (c *Catalog) buildIndex() {
	c.byID = make(map[string]*QuestionDefinition, len(c.Questions))
	for i := range c.Questions {
		c.byID[c.Questions[i].ID] = &c.Questions[i]
	}
}

// Get returns the definition for a question id.
func (c *Catalog) Get(id string) (*QuestionDefinition, bool) {
	if c.byID == nil {
		c.buildIndex()
	}
	q, ok := c.byID[id]
	return q, ok
}

// Anchors returns the anchor questions in catalog order.
func (c *Catalog) Anchors() []QuestionDefinition {
	return c.filter(func(q *QuestionDefinition) bool { return q.Category == CategoryAnchor })
}

// AdaptiveFor returns the adaptive questions for a goal in catalog order.
func (c *Catalog) AdaptiveFor(goal GoalTag) []QuestionDefinition {
	return c.filter(func(q *QuestionDefinition) bool {
		return q.Category == CategoryAdaptive && q.Goal == goal
	})
}

// Evolution returns the evolution questions in catalog order.
func (c *Catalog) Evolution() []QuestionDefinition {
	return c.filter(func(q *QuestionDefinition) bool { return q.Category == CategoryEvolution })
}

func (c *Catalog) filter(keep func(*QuestionDefinition) bool) []QuestionDefinition {
	var out []QuestionDefinition
	for i := range c.Questions {
		if keep(&c.Questions[i]) {
			out = append(out, c.Questions[i])
		}
	}
	return out
}
