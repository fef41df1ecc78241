// Package flow reads YAML flow files and runs them against a Driver, one
// report row per flow.
package flow

import (
	"fmt"
	"time"

	"github.com/wanmail/driverlib"
)

// Flow is a parsed flow file.
type Flow struct {
	SourcePath string
	Name       string
	Expected   string
	// URL, when set, is loaded before the first step.
	URL   string
	Steps []Step
}

// StepType names what a step does.
type StepType string

// Step types.
const (
	StepNavigate         StepType = "navigate"
	StepWaitVisible      StepType = "waitVisible"
	StepClick            StepType = "click"
	StepInput            StepType = "type"
	StepScreenshot       StepType = "screenshot"
	StepSleep            StepType = "sleep"
	StepPressDown        StepType = "pressDown"
	StepAssertVisible    StepType = "assertVisible"
	StepAssertNotVisible StepType = "assertNotVisible"
	StepAssertText       StepType = "assertText"
	StepAssertURL        StepType = "assertUrl"
	StepAssertCount      StepType = "assertCount"
)

// Target locates the element a step works on. Exactly one of the locator
// fields is set.
type Target struct {
	ID    string `yaml:"id"`
	Class string `yaml:"class"`
	XPath string `yaml:"xpath"`
	Tag   string `yaml:"tag"`
	Index int    `yaml:"index"`
}

// IsZero reports whether no locator is set.
func (t Target) IsZero() bool {
	return t.ID == "" && t.Class == "" && t.XPath == "" && t.Tag == ""
}

func (t Target) locators() int {
	n := 0
	for _, v := range []string{t.ID, t.Class, t.XPath, t.Tag} {
		if v != "" {
			n++
		}
	}
	return n
}

// Selector converts the target for the Driver.
func (t Target) Selector() driverlib.Selector {
	var sel driverlib.Selector
	switch {
	case t.ID != "":
		sel = driverlib.ID(t.ID)
	case t.Class != "":
		sel = driverlib.Class(t.Class)
	case t.XPath != "":
		sel = driverlib.XPath(t.XPath)
	default:
		sel = driverlib.Tag(t.Tag)
	}
	return sel.At(t.Index)
}

// Step is one line of a flow. Which fields are meaningful depends on Type.
type Step struct {
	Type StepType `yaml:"-"`
	Line int      `yaml:"-"`

	Target `yaml:",inline"`

	URL      string `yaml:"url"`
	Text     string `yaml:"text"`
	Contains string `yaml:"contains"`
	Count    int    `yaml:"count"`

	// Name and ErrorFolder belong to screenshot steps.
	Name        string `yaml:"name"`
	ErrorFolder bool   `yaml:"errorFolder"`

	// Screenshot names a capture taken after a click or type.
	Screenshot string        `yaml:"screenshot"`
	Pause      time.Duration `yaml:"pause"`
	Timeout    time.Duration `yaml:"timeout"`
	Duration   time.Duration `yaml:"duration"`
	// Strict makes a failed click or type fail the flow.
	Strict bool `yaml:"strict"`
}

func (s Step) String() string {
	switch {
	case !s.Target.IsZero():
		return fmt.Sprintf("%s %s", s.Type, s.Target.Selector())
	case s.URL != "":
		return fmt.Sprintf("%s %s", s.Type, s.URL)
	}
	return string(s.Type)
}
