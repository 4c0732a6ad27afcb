// Package catalog holds the educational content battles draw from:
// concepts, topics, and true/false questions with their answer keys.
// Defaults are embedded; an override directory can replace them.
package catalog

import (
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/undeadlabs/arena/internal/domain"
)

//go:embed questions.yaml
var defaultFiles embed.FS

// Concept groups questions under one subject area.
type Concept struct {
	ID     uint8   `yaml:"id"`
	Name   string  `yaml:"name"`
	Topics []uint8 `yaml:"topics"`
}

// Question is a single true/false prompt with its committed answer.
type Question struct {
	ID      uint16 `yaml:"id"`
	Concept uint8  `yaml:"concept"`
	Topic   uint8  `yaml:"topic"`
	Text    string `yaml:"text"`
	Answer  bool   `yaml:"answer"`
}

type fileFormat struct {
	Concepts  []Concept  `yaml:"concepts"`
	Questions []Question `yaml:"questions"`
}

// Catalog is the loaded, validated question bank.
type Catalog struct {
	concepts    []Concept
	questions   []Question
	byConceptID map[uint8][]Question
}

// Load reads the embedded bank, then applies an optional override file
// directory (every *.yaml in it replaces the bank wholesale, sorted order,
// last file wins).
func Load(overrideDir string) (*Catalog, error) {
	raw, err := fs.ReadFile(defaultFiles, "questions.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}

	if strings.TrimSpace(overrideDir) != "" {
		entries, err := os.ReadDir(overrideDir)
		if err != nil {
			return nil, fmt.Errorf("read catalog dir: %w", err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext == ".yaml" || ext == ".yml" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			b, err := os.ReadFile(filepath.Join(overrideDir, name))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			var of fileFormat
			if err := yaml.Unmarshal(b, &of); err != nil {
				return nil, fmt.Errorf("parse %s: %w", name, err)
			}
			f = of
		}
	}
	return build(f)
}

func build(f fileFormat) (*Catalog, error) {
	if len(f.Concepts) < domain.ConceptsPerBattle {
		return nil, fmt.Errorf("catalog needs at least %d concepts, has %d", domain.ConceptsPerBattle, len(f.Concepts))
	}
	c := &Catalog{
		concepts:    f.Concepts,
		questions:   f.Questions,
		byConceptID: make(map[uint8][]Question),
	}
	for _, q := range f.Questions {
		c.byConceptID[q.Concept] = append(c.byConceptID[q.Concept], q)
	}
	for _, con := range f.Concepts {
		if len(c.byConceptID[con.ID]) == 0 {
			return nil, fmt.Errorf("concept %d (%s) has no questions", con.ID, con.Name)
		}
	}
	return c, nil
}

// ConceptCount returns the number of concepts in the bank.
func (c *Catalog) ConceptCount() int { return len(c.concepts) }

// ValidConcept reports whether id names a catalog concept.
func (c *Catalog) ValidConcept(id uint8) bool {
	_, ok := c.byConceptID[id]
	return ok
}

// Question returns the question with the given id, nil when absent.
func (c *Catalog) Question(id uint16) *Question {
	for i := range c.questions {
		if c.questions[i].ID == id {
			return &c.questions[i]
		}
	}
	return nil
}

// Draw deterministically selects the battle content from an oracle result:
// 5 unique concepts, then 10 questions spread round-robin across them.
// Identical oracle bytes always produce the identical draw.
func (c *Catalog) Draw(oracleResult []byte) (concepts []uint8, topics []uint8, questions []uint16, answers []bool) {
	pool := make([]Concept, len(c.concepts))
	copy(pool, c.concepts)

	next := roller(oracleResult)
	for len(concepts) < domain.ConceptsPerBattle {
		i := int(next() % uint64(len(pool)))
		concepts = append(concepts, pool[i].ID)
		pool = append(pool[:i], pool[i+1:]...)
	}

	for len(questions) < domain.QuestionsPerBattle {
		conceptID := concepts[len(questions)%len(concepts)]
		bank := c.byConceptID[conceptID]
		q := bank[int(next()%uint64(len(bank)))]
		questions = append(questions, q.ID)
		topics = append(topics, q.Topic)
		answers = append(answers, q.Answer)
	}
	return concepts, topics, questions, answers
}

// roller turns the oracle bytes into an endless deterministic uint64 feed.
func roller(seed []byte) func() uint64 {
	buf := seed
	if len(buf) < 8 {
		buf = append(make([]byte, 8-len(buf)), buf...)
	}
	state := binary.LittleEndian.Uint64(buf[:8])
	return func() uint64 {
		// splitmix64 step
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		return z ^ (z >> 31)
	}
}
