package flow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile reads and parses the flow file at path.
func ParseFile(fs afero.Fs, path string) (*Flow, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}
	return Parse(data, path)
}

// Parse parses a flow document. sourcePath is used in errors and as the
// default flow name.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("invalid flow: %v", err),
		}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty flow file"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: sourcePath, Line: root.Line, Message: "flow must be a mapping"}
	}

	var header struct {
		Name     string      `yaml:"name"`
		Expected string      `yaml:"expected"`
		URL      string      `yaml:"url"`
		Steps    []yaml.Node `yaml:"steps"`
	}
	if err := root.Decode(&header); err != nil {
		return nil, wrapParseError(sourcePath, root.Line, err)
	}
	if len(header.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: root.Line, Message: "flow has no steps"}
	}

	f := &Flow{
		SourcePath: sourcePath,
		Name:       header.Name,
		Expected:   header.Expected,
		URL:        header.URL,
	}
	if f.Name == "" {
		base := filepath.Base(sourcePath)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	for i := range header.Steps {
		step, err := parseStep(&header.Steps[i], sourcePath)
		if err != nil {
			return nil, err
		}
		f.Steps = append(f.Steps, step)
	}
	return f, nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepNavigate, StepWaitVisible, StepClick, StepInput, StepScreenshot,
		StepSleep, StepPressDown, StepAssertVisible, StepAssertNotVisible,
		StepAssertText, StepAssertURL, StepAssertCount:
		return true
	}
	return false
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// "- pressDown" with no value.
	if node.Kind == yaml.ScalarNode {
		if !isStepType(node.Value) {
			return Step{}, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", node.Value),
			}
		}
		return decodeStep(StepType(node.Value), &yaml.Node{Kind: yaml.MappingNode, Line: node.Line}, sourcePath)
	}

	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a single-key mapping or a step name",
		}
	}
	key, value := node.Content[0], node.Content[1]
	if !isStepType(key.Value) {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    key.Line,
			Message: fmt.Sprintf("unknown step type: %s", key.Value),
		}
	}
	return decodeStep(StepType(key.Value), value, sourcePath)
}

func decodeStep(stepType StepType, value *yaml.Node, sourcePath string) (Step, error) {
	s := Step{Type: stepType, Line: value.Line}

	switch {
	case value.Kind == yaml.ScalarNode && value.Tag == "!!null":
	case value.Kind == yaml.ScalarNode:
		if err := decodeShorthand(&s, value); err != nil {
			return Step{}, wrapParseError(sourcePath, value.Line, err)
		}
	case value.Kind == yaml.MappingNode:
		if err := value.Decode(&s); err != nil {
			return Step{}, wrapParseError(sourcePath, value.Line, err)
		}
	default:
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    value.Line,
			Message: fmt.Sprintf("%s: value must be a scalar or a mapping", stepType),
		}
	}

	if err := validate(s); err != nil {
		return Step{}, wrapParseError(sourcePath, value.Line, err)
	}
	return s, nil
}

// decodeShorthand fills the one field a scalar value stands for.
func decodeShorthand(s *Step, value *yaml.Node) error {
	switch s.Type {
	case StepNavigate:
		s.URL = value.Value
	case StepWaitVisible, StepClick, StepAssertVisible, StepAssertNotVisible:
		s.ID = value.Value
	case StepScreenshot:
		s.Name = value.Value
	case StepSleep:
		return value.Decode(&s.Duration)
	case StepAssertURL:
		s.Contains = value.Value
	default:
		return fmt.Errorf("%s needs a mapping value", s.Type)
	}
	return nil
}

func validate(s Step) error {
	if s.Index < 0 {
		return fmt.Errorf("%s: index must not be negative", s.Type)
	}
	if s.Pause < 0 || s.Timeout < 0 || s.Duration < 0 {
		return fmt.Errorf("%s: durations must not be negative", s.Type)
	}
	if strings.ContainsAny(s.Name+s.Screenshot, `/\`) {
		return fmt.Errorf("%s: screenshot names must not contain a path separator", s.Type)
	}

	switch s.Type {
	case StepNavigate:
		if s.URL == "" {
			return fmt.Errorf("navigate needs a url")
		}
	case StepWaitVisible, StepClick, StepAssertVisible, StepAssertNotVisible:
		return validateTarget(s)
	case StepInput:
		if err := validateTarget(s); err != nil {
			return err
		}
		if s.Text == "" {
			return fmt.Errorf("type needs text")
		}
	case StepScreenshot:
		if s.Name == "" {
			return fmt.Errorf("screenshot needs a name")
		}
	case StepSleep:
		if s.Duration == 0 {
			return fmt.Errorf("sleep needs a duration")
		}
	case StepAssertText:
		if s.ID == "" || s.Target.locators() != 1 {
			return fmt.Errorf("assertText needs exactly an id")
		}
		if s.Text == "" && s.Contains == "" {
			return fmt.Errorf("assertText needs text or contains")
		}
	case StepAssertURL:
		if s.URL == "" && s.Contains == "" {
			return fmt.Errorf("assertUrl needs url or contains")
		}
	case StepAssertCount:
		if s.Class == "" || s.Target.locators() != 1 {
			return fmt.Errorf("assertCount needs exactly a class")
		}
		if s.Count < 0 {
			return fmt.Errorf("assertCount: count must not be negative")
		}
	}
	return nil
}

func validateTarget(s Step) error {
	switch s.Target.locators() {
	case 0:
		return fmt.Errorf("%s needs one of id, class, xpath or tag", s.Type)
	case 1:
		return nil
	}
	return fmt.Errorf("%s: only one of id, class, xpath or tag may be set", s.Type)
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}
