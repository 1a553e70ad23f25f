package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var contentFS embed.FS

// SupportedMajor is the major content version this build understands.
const SupportedMajor = "v1"

// contentFile is the on-disk shape of one category file.
type contentFile struct {
	Version  string  `yaml:"version"`
	Category string  `yaml:"category"`
	Topics   []Topic `yaml:"topics"`
}

// Catalog is the read-only repository of topics and questions.
type Catalog struct {
	topics     []Topic
	byID       map[string]int
	bySlug     map[string]int
	categories []Category
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog built from the embedded content. The result
// is parsed once and shared.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = LoadFS(contentFS, "content")
	})
	return defaultCat, defaultErr
}

// MustDefault is like Default but panics if the embedded content is invalid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded content: %v", err))
	}
	return c
}

// LoadFS reads every *.yaml file in dir, in name order.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var topics []Topic
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var f contentFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if err := checkVersion(f.Version); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		for _, t := range f.Topics {
			if t.Category == "" {
				t.Category = f.Category
			}
			topics = append(topics, t)
		}
	}

	// Zone A content comes before zone B regardless of file names.
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Zone < topics[j].Zone
	})

	return New(topics)
}

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid content version %q", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("unsupported content version %s (want %s.x)", v, SupportedMajor)
	}
	return nil
}

// New builds a Catalog from topics after validating them.
func New(topics []Topic) (*Catalog, error) {
	c := &Catalog{
		topics: topics,
		byID:   make(map[string]int, len(topics)),
		bySlug: make(map[string]int, len(topics)),
	}

	questionIDs := make(map[string]string)
	catIndex := make(map[string]int)

	for i := range topics {
		t := &topics[i]
		if t.ID == "" {
			return nil, fmt.Errorf("topic %d has no id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate topic id %q", t.ID)
		}
		if !t.Zone.Valid() {
			return nil, fmt.Errorf("topic %q: unknown zone %q", t.ID, t.Zone)
		}
		c.byID[t.ID] = i
		if t.Slug != "" {
			c.bySlug[t.Slug] = i
		}

		for _, q := range t.Questions {
			if err := validateMCQ(q); err != nil {
				return nil, fmt.Errorf("topic %q: %w", t.ID, err)
			}
			if owner, dup := questionIDs[q.ID]; dup {
				return nil, fmt.Errorf("question id %q used by %q and %q", q.ID, owner, t.ID)
			}
			questionIDs[q.ID] = t.ID
		}

		idx, ok := catIndex[t.Category]
		if !ok {
			idx = len(c.categories)
			catIndex[t.Category] = idx
			c.categories = append(c.categories, Category{ID: t.Category, Zone: t.Zone})
		}
		c.categories[idx].Topics = append(c.categories[idx].Topics, t.ID)
	}

	return c, nil
}

func validateMCQ(q MCQ) error {
	if q.ID == "" {
		return fmt.Errorf("question without id")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("question %q: want %d options, got %d", q.ID, OptionCount, len(q.Options))
	}
	if q.Answer < 0 || q.Answer >= OptionCount {
		return fmt.Errorf("question %q: answer index %d out of range", q.ID, q.Answer)
	}
	if !q.Difficulty.Valid() {
		return fmt.Errorf("question %q: unknown difficulty %q", q.ID, q.Difficulty)
	}
	return nil
}

// Topics returns all topics, zone A first.
func (c *Catalog) Topics() []Topic {
	return c.topics
}

// Topic looks up a topic by ID.
func (c *Catalog) Topic(id string) (*Topic, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.topics[i], true
}

// TopicBySlug looks up a topic by its URL slug.
func (c *Catalog) TopicBySlug(slug string) (*Topic, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	return &c.topics[i], true
}

// TopicsByZone returns the topics of one zone in catalog order.
func (c *Catalog) TopicsByZone(z Zone) []Topic {
	var out []Topic
	for _, t := range c.topics {
		if t.Zone == z {
			out = append(out, t)
		}
	}
	return out
}

// TopicsByCategory returns the topics of one category in catalog order.
func (c *Catalog) TopicsByCategory(category string) []Topic {
	var out []Topic
	for _, t := range c.topics {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns categories in first-appearance order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// AllQuestions returns every question tagged with its owning topic.
func (c *Catalog) AllQuestions() []Question {
	var out []Question
	for _, t := range c.topics {
		for _, q := range t.Questions {
			out = append(out, Question{MCQ: q, TopicID: t.ID, TopicTitle: t.Title})
		}
	}
	return out
}

// QuestionsByDifficulty returns every question of the given difficulty.
func (c *Catalog) QuestionsByDifficulty(d Difficulty) []Question {
	return c.filter(Filter{Difficulty: d})
}

func (c *Catalog) filter(f Filter) []Question {
	var out []Question
	for i := range c.topics {
		t := &c.topics[i]
		for _, q := range t.Questions {
			if f.Matches(t, q) {
				out = append(out, Question{MCQ: q, TopicID: t.ID, TopicTitle: t.Title})
			}
		}
	}
	return out
}

// Stats summarizes topic and question counts.
func (c *Catalog) Stats() Stats {
	s := Stats{
		TotalTopics: len(c.topics),
		Categories:  len(c.categories),
	}
	for _, t := range c.topics {
		switch t.Zone {
		case ZoneA:
			s.ZoneATopics++
		case ZoneB:
			s.ZoneBTopics++
		}
		s.TotalMCQs += len(t.Questions)
		s.TotalMinutes += t.EstimatedMinutes
	}
	return s
}
