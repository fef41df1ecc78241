package report

import (
	"html"
	"strings"
	"time"
)

// TimeFormat is the layout used for start and end times in report rows.
const TimeFormat = "01/02/2006 15:04:05"

// Result is the outcome recorded for a TestCase.
type Result int

// Results a TestCase can carry. A TestCase starts Unset.
const (
	Unset Result = iota
	Pass
	Fail
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	}
	return ""
}

// Color returns the background color of the result cell.
func (r Result) Color() string {
	switch r {
	case Pass:
		return "green"
	case Fail:
		return "red"
	}
	return ""
}

// TestCase records one test's name, expected and actual outcome, timing and
// result. Setters may be called in any order; Render reflects whatever has
// been set so far.
type TestCase struct {
	name     string
	expected string
	actual   string
	start    time.Time
	end      time.Time
	result   Result
}

// NewTestCase returns a TestCase whose start time is now.
func NewTestCase(name, expected string) *TestCase {
	tc := &TestCase{}
	tc.SetName(name)
	tc.SetExpectedOutcome(expected)
	tc.SetStartTime(time.Now())
	return tc
}

// SetName sets the test name.
func (tc *TestCase) SetName(name string) { tc.name = name }

// SetExpectedOutcome sets the expected outcome.
func (tc *TestCase) SetExpectedOutcome(outcome string) { tc.expected = outcome }

// SetActualOutcome sets the actual outcome.
func (tc *TestCase) SetActualOutcome(outcome string) { tc.actual = outcome }

// SetStartTime sets the start time.
func (tc *TestCase) SetStartTime(t time.Time) { tc.start = t }

// SetEndTime sets the end time. Report.AddTestCase stamps it.
func (tc *TestCase) SetEndTime(t time.Time) { tc.end = t }

// SetResult records PASS when pass is true and FAIL otherwise.
func (tc *TestCase) SetResult(pass bool) {
	if pass {
		tc.result = Pass
	} else {
		tc.result = Fail
	}
}

func (tc *TestCase) Name() string            { return tc.name }
func (tc *TestCase) ExpectedOutcome() string { return tc.expected }
func (tc *TestCase) ActualOutcome() string   { return tc.actual }
func (tc *TestCase) StartTime() time.Time    { return tc.start }
func (tc *TestCase) EndTime() time.Time      { return tc.end }
func (tc *TestCase) Result() Result          { return tc.result }

// Render returns the test as one HTML table row. Until SetResult has been
// called the result cell is empty and carries no color attribute.
func (tc *TestCase) Render() string {
	var b strings.Builder
	b.WriteString("<tr>")
	for _, cell := range []string{
		tc.name,
		tc.expected,
		formatTime(tc.start),
		formatTime(tc.end),
		tc.actual,
	} {
		b.WriteString("<td>")
		b.WriteString(html.EscapeString(cell))
		b.WriteString("</td>")
	}
	if color := tc.result.Color(); color != "" {
		b.WriteString("<td bgcolor=" + color + ">")
	} else {
		b.WriteString("<td>")
	}
	b.WriteString(tc.result.String())
	b.WriteString("</td></tr>")
	return b.String()
}

// String is Render.
func (tc *TestCase) String() string {
	return tc.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeFormat)
}
