package driverlib

import (
	"fmt"
	"strconv"

	"github.com/tebeka/selenium"
)

// By is the strategy used to locate elements.
type By int

// The supported strategies.
const (
	ByID By = iota
	ByClassName
	ByXPath
	ByTagName
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByClassName:
		return "class"
	case ByXPath:
		return "xpath"
	case ByTagName:
		return "tag"
	}
	return "By(" + strconv.Itoa(int(b)) + ")"
}

// locator returns the WebDriver location strategy for b.
func (b By) locator() (string, error) {
	switch b {
	case ByID:
		return selenium.ByID, nil
	case ByClassName:
		return selenium.ByClassName, nil
	case ByXPath:
		return selenium.ByXPATH, nil
	case ByTagName:
		return selenium.ByTagName, nil
	}
	return "", ErrUnsupportedSelector
}

// Selector addresses the Index-th element located by By and Value.
type Selector struct {
	By    By
	Value string
	Index int
}

// ID selects the element with the given id attribute.
func ID(id string) Selector { return Selector{By: ByID, Value: id} }

// Class selects elements carrying the given class name.
func Class(name string) Selector { return Selector{By: ByClassName, Value: name} }

// XPath selects elements matching an XPath expression.
func XPath(expr string) Selector { return Selector{By: ByXPath, Value: expr} }

// Tag selects elements with the given tag name.
func Tag(name string) Selector { return Selector{By: ByTagName, Value: name} }

// At returns a copy of s addressing the i-th match.
func (s Selector) At(i int) Selector {
	s.Index = i
	return s
}

func (s Selector) String() string {
	if s.Index == 0 {
		return fmt.Sprintf("%s=%q", s.By, s.Value)
	}
	return fmt.Sprintf("%s=%q[%d]", s.By, s.Value, s.Index)
}
