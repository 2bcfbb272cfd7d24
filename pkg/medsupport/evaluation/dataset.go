// Package evaluation scores the service's answers offline: a suite of examples is sent through MedService and
// every answer is graded by heuristic evaluators and, if an API key is configured, by an LLM judge.
package evaluation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SuiteKind decides which MedService operation answers the suite's examples.
type SuiteKind string

const (
	SuiteKindText     SuiteKind = "text"
	SuiteKindImage    SuiteKind = "image"
	SuiteKindScribe   SuiteKind = "scribe"
	SuiteKindSimplify SuiteKind = "simplify"
)

var ErrInvalidSuite = errors.New("invalid suite")

//go:embed datasets.yaml
var defaultSuitesYAML []byte

type ExampleInputs struct {
	Text      string `yaml:"text,omitempty" json:"text,omitempty"`
	Prompt    string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	ImagePath string `yaml:"imagePath,omitempty" json:"imagePath,omitempty"`
}

// ExampleOutputs what a good answer looks like. Every field is optional.
type ExampleOutputs struct {
	HasBox            bool     `yaml:"hasBox" json:"hasBox"`
	Entities          []string `yaml:"entities,omitempty" json:"entities,omitempty"`
	ExpectedKeywords  []string `yaml:"expectedKeywords,omitempty" json:"expectedKeywords,omitempty"`
	ForbiddenKeywords []string `yaml:"forbiddenKeywords,omitempty" json:"forbiddenKeywords,omitempty"`
	RequiredSections  []string `yaml:"requiredSections,omitempty" json:"requiredSections,omitempty"`
}

type Example struct {
	Inputs  ExampleInputs  `yaml:"inputs" json:"inputs"`
	Outputs ExampleOutputs `yaml:"outputs" json:"outputs"`
}

// Input what a human would read as the question: the text, or the prompt that came with the image.
func (e *Example) Input() string {
	if e.Inputs.Text != "" {
		return e.Inputs.Text
	}
	return e.Inputs.Prompt
}

// ResolveImagePath relative image paths are relative to `baseDir`.
func (e *Example) ResolveImagePath(baseDir string) string {
	if filepath.IsAbs(e.Inputs.ImagePath) {
		return e.Inputs.ImagePath
	}
	return filepath.Join(baseDir, e.Inputs.ImagePath)
}

type Suite struct {
	Name             string            `yaml:"name"`
	Kind             SuiteKind         `yaml:"kind"`
	ExperimentPrefix string            `yaml:"experimentPrefix"`
	Metadata         map[string]string `yaml:"metadata"`
	Evaluators       []string          `yaml:"evaluators"`
	Examples         []Example         `yaml:"examples"`
}

// DefaultSuites the suites the service has always been evaluated on.
func DefaultSuites() ([]*Suite, error) {
	return ParseSuites(defaultSuitesYAML)
}

// LoadSuites reads suites from a YAML file with the same layout as the default one.
func LoadSuites(path string) ([]*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSuites(data)
}

func ParseSuites(data []byte) ([]*Suite, error) {
	var suites []*Suite
	if err := yaml.Unmarshal(data, &suites); err != nil {
		return nil, err
	}
	for _, suite := range suites {
		if err := suite.validate(); err != nil {
			return nil, err
		}
	}
	return suites, nil
}

func (s *Suite) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: a suite has no name", ErrInvalidSuite)
	}
	switch s.Kind {
	case SuiteKindText:
		for i, example := range s.Examples {
			if example.Inputs.Text == "" {
				return fmt.Errorf("%w: %s: example #%d has no text", ErrInvalidSuite, s.Name, i+1)
			}
		}
	case SuiteKindImage, SuiteKindScribe, SuiteKindSimplify:
		for i, example := range s.Examples {
			if example.Inputs.ImagePath == "" {
				return fmt.Errorf("%w: %s: example #%d has no image", ErrInvalidSuite, s.Name, i+1)
			}
		}
	default:
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidSuite, s.Name, s.Kind)
	}
	if s.ExperimentPrefix == "" {
		s.ExperimentPrefix = s.Name
	}
	return nil
}

// ValidExamples drops examples whose image doesn't exist under `baseDir`.
func (s *Suite) ValidExamples(baseDir string) []Example {
	var valid []Example
	for _, example := range s.Examples {
		if example.Inputs.ImagePath != "" {
			if _, err := os.Stat(example.ResolveImagePath(baseDir)); err != nil {
				continue
			}
		}
		valid = append(valid, example)
	}
	return valid
}
