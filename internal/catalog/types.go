package catalog

// Zone is a coarse content grouping.
type Zone string

const (
	ZoneA Zone = "A" // exam-focused fundamentals
	ZoneB Zone = "B" // advanced / professional
)

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	return z == ZoneA || z == ZoneB
}

// Difficulty is the difficulty label of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Level selects one of the three depths of lesson content.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the content levels in reading order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Topic is a unit of study content with its questions.
type Topic struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	Slug             string   `yaml:"slug"`
	Category         string   `yaml:"category"`
	Zone             Zone     `yaml:"zone"`
	Description      string   `yaml:"description"`
	EstimatedMinutes int      `yaml:"estimated_minutes"`
	Content          Content  `yaml:"content"`
	KeyPoints        []string `yaml:"key_points"`
	CommonMistakes   []string `yaml:"common_mistakes"`
	Summary          string   `yaml:"summary"`
	Cheatsheet       []string `yaml:"cheatsheet"`
	RelatedTopics    []string `yaml:"related_topics"`
	Questions        []MCQ    `yaml:"questions"`
}

// Content holds the markdown body of a topic at each level.
type Content struct {
	Beginner     string `yaml:"beginner"`
	Intermediate string `yaml:"intermediate"`
	Advanced     string `yaml:"advanced"`
}

// ForLevel returns the markdown for the given level, defaulting to beginner.
func (c Content) ForLevel(l Level) string {
	switch l {
	case LevelIntermediate:
		return c.Intermediate
	case LevelAdvanced:
		return c.Advanced
	default:
		return c.Beginner
	}
}

// MCQ is a multiple-choice question. Options has exactly four entries and
// Answer indexes the correct one.
type MCQ struct {
	ID          string     `yaml:"id" json:"id"`
	Question    string     `yaml:"question" json:"question"`
	Options     []string   `yaml:"options" json:"options"`
	Answer      int        `yaml:"answer" json:"correctAnswer"`
	Explanation string     `yaml:"explanation" json:"explanation"`
	Difficulty  Difficulty `yaml:"difficulty" json:"difficulty"`
	Tags        []string   `yaml:"tags" json:"tags"`
}

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Question is an MCQ tagged with the topic that owns it.
type Question struct {
	MCQ
	TopicID    string `json:"topicId"`
	TopicTitle string `json:"topicTitle"`
}

// Category groups the topics of one zone under a shared heading.
type Category struct {
	ID     string
	Zone   Zone
	Topics []string
}

// Filter narrows question sampling. Zero-value fields do not filter.
type Filter struct {
	Zone       Zone
	Category   string
	Difficulty Difficulty
}

// Matches reports whether q (owned by topic t) passes the filter.
func (f Filter) Matches(t *Topic, q MCQ) bool {
	if f.Zone != "" && t.Zone != f.Zone {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	return true
}

// Stats summarizes the catalog.
type Stats struct {
	TotalTopics  int
	ZoneATopics  int
	ZoneBTopics  int
	TotalMCQs    int
	TotalMinutes int
	Categories   int
}
