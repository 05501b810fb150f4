// Package rubric loads the assignment rubric: what the assignment is
// called, which questions exist, how many marks each carries, and what
// a well-formed roll number looks like.
package rubric

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultRollPattern matches roll numbers like "a123456".
const DefaultRollPattern = `^[a-z]\d{6}$`

// Rubric describes one assignment's grading scheme.
type Rubric struct {
	Assignment  string             `yaml:"assignment"`
	Evaluator   string             `yaml:"evaluator"`
	TotalMarks  float64            `yaml:"total_marks"`
	Questions   map[string]float64 `yaml:"questions"`
	RollPattern string             `yaml:"roll_pattern"`
	Format      string             `yaml:"format"`

	rollRegexp *regexp.Regexp
}

// Load reads a rubric from a YAML file. A missing roll pattern falls
// back to DefaultRollPattern.
func Load(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric %s: %w", path, err)
	}

	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing rubric %s: %w", path, err)
	}

	if err := r.compile(); err != nil {
		return nil, fmt.Errorf("rubric %s: %w", path, err)
	}
	return &r, nil
}

// Default returns the rubric used when no rubric file is configured:
// any question is accepted and roll numbers follow DefaultRollPattern.
func Default() *Rubric {
	r := &Rubric{Assignment: "Unnamed Assignment"}
	r.compile()
	return r
}

func (r *Rubric) compile() error {
	pattern := r.RollPattern
	if pattern == "" {
		pattern = DefaultRollPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid roll pattern %q: %w", pattern, err)
	}
	r.rollRegexp = re
	return nil
}

// ValidRollNumber reports whether the roll number matches the
// assignment's submission guidelines.
func (r *Rubric) ValidRollNumber(roll string) bool {
	return r.rollRegexp.MatchString(roll)
}

// QuestionMarks returns the maximum marks for a question. Questions may
// be keyed bare ("3") or with a prefix ("Question 3"). When the rubric
// lists no questions at all, every question is valid with no cap.
func (r *Rubric) QuestionMarks(question string) (float64, bool) {
	if len(r.Questions) == 0 {
		return 0, true
	}
	if marks, ok := r.Questions[question]; ok {
		return marks, true
	}
	if marks, ok := r.Questions["Question "+question]; ok {
		return marks, true
	}
	return 0, false
}
