// Package drivertest provides an in-memory WebDriver session and fixture pages
// for exercising driverlib without a browser.
//
// Session implements the subset of selenium.WebDriver that driverlib uses.
// Calling any other method panics, which keeps tests honest about what the
// code under test touches.
package drivertest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/tebeka/selenium"
)

// ErrNoSuchElement is returned by FindElement when nothing matches.
var ErrNoSuchElement = errors.New("no such element")

// Element is one node of the fake document.
type Element struct {
	ID    string
	Class string
	Tag   string
	// XPath is matched verbatim against XPath selectors.
	XPath string
	Text  string
	Attrs map[string]string

	Hidden bool
	// VisibleAfter keeps the element hidden for that many IsDisplayed calls.
	VisibleAfter int

	ClickErr   error
	KeysErr    error
	DisplayErr error

	Children []*Element

	mu      sync.Mutex
	clicks  int
	keys    []string
	checked int
}

// Clicks returns how often the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Keys returns the keystrokes sent to the element.
func (e *Element) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

func (e *Element) displayed() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.DisplayErr != nil {
		return false, e.DisplayErr
	}
	e.checked++
	if e.Hidden {
		return false, nil
	}
	return e.checked > e.VisibleAfter, nil
}

func (e *Element) matches(by, value string) bool {
	switch by {
	case selenium.ByID:
		return e.ID != "" && e.ID == value
	case selenium.ByClassName:
		for _, c := range strings.Fields(e.Class) {
			if c == value {
				return true
			}
		}
	case selenium.ByTagName:
		return strings.EqualFold(e.Tag, value)
	case selenium.ByXPATH:
		return e.XPath != "" && e.XPath == value
	}
	return false
}

// collect appends the descendants of es matching by/value in document order.
func collect(es []*Element, by, value string, out []*Element) []*Element {
	for _, e := range es {
		if e.matches(by, value) {
			out = append(out, e)
		}
		out = collect(e.Children, by, value, out)
	}
	return out
}

// Table builds a tbody element with one tr per row and one td per cell.
func Table(rows [][]string) *Element {
	body := &Element{Tag: "tbody"}
	for _, row := range rows {
		tr := &Element{Tag: "tr"}
		for _, cell := range row {
			tr.Children = append(tr.Children, &Element{Tag: "td", Text: cell})
		}
		body.Children = append(body.Children, tr)
	}
	return body
}

// Session is a fake selenium.WebDriver backed by a list of Elements.
type Session struct {
	selenium.WebDriver

	mu       sync.Mutex
	elements []*Element
	url      string

	navigations []string
	keyEvents   []string
	active      *Element
	screenshots int
	closed      bool
	quit        bool
	maximized   bool

	GetErr        error
	FindErr       error
	ScreenshotErr error
	ActiveErr     error
	CloseErr      error
	QuitErr       error

	// Legacy makes KeyUp behave like the client does on JSON Wire Protocol
	// sessions, where it sends the keys again.
	Legacy bool
}

var _ selenium.WebDriver = (*Session)(nil)

// NewSession returns a Session whose document holds elements.
func NewSession(elements ...*Element) *Session {
	return &Session{elements: elements}
}

// SetElements replaces the document.
func (s *Session) SetElements(elements ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements = elements
}

// Navigations returns every URL passed to Get.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Focus makes e the element returned by ActiveElement.
func (s *Session) Focus(e *Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = e
}

// Active returns the focused element. Without a Focus call this is a body
// element that is not part of the document.
func (s *Session) Active() *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused()
}

func (s *Session) focused() *Element {
	if s.active == nil {
		s.active = &Element{Tag: "body"}
	}
	return s.active
}

// KeyEvents returns "down:<key>" and "up:<key>" entries for KeyDown and KeyUp
// in call order.
func (s *Session) KeyEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keyEvents...)
}

// Screenshots returns how many screenshots were taken.
func (s *Session) Screenshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenshots
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Quitted reports whether Quit was called.
func (s *Session) Quitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quit
}

// Maximized reports whether MaximizeWindow was called.
func (s *Session) Maximized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maximized
}

func (s *Session) Get(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return s.GetErr
	}
	s.navigations = append(s.navigations, url)
	s.url = url
	return nil
}

func (s *Session) CurrentURL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *Session) FindElements(by, value string) ([]selenium.WebElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	return wrap(collect(s.elements, by, value, nil)), nil
}

func (s *Session) FindElement(by, value string) (selenium.WebElement, error) {
	es, err := s.FindElements(by, value)
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, ErrNoSuchElement
	}
	return es[0], nil
}

func (s *Session) KeyDown(keys string) error {
	return s.key("down", keys)
}

func (s *Session) KeyUp(keys string) error {
	if s.Legacy {
		return s.key("down", keys)
	}
	return s.key("up", keys)
}

func (s *Session) ActiveElement() (selenium.WebElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ActiveErr != nil {
		return nil, s.ActiveErr
	}
	return &webElement{e: s.focused()}, nil
}

func (s *Session) key(dir, keys string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyEvents = append(s.keyEvents, dir+":"+keys)
	return nil
}

func (s *Session) Screenshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScreenshotErr != nil {
		return nil, s.ScreenshotErr
	}
	s.screenshots++
	return PNG(), nil
}

func (s *Session) MaximizeWindow(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maximized = true
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.CloseErr
}

func (s *Session) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quit = true
	return s.QuitErr
}

// webElement adapts an Element to selenium.WebElement.
type webElement struct {
	selenium.WebElement
	e *Element
}

// Unwrap returns the Element behind a WebElement returned by a Session.
func Unwrap(we selenium.WebElement) (*Element, error) {
	w, ok := we.(*webElement)
	if !ok {
		return nil, fmt.Errorf("drivertest: %T is not a fake element", we)
	}
	return w.e, nil
}

func wrap(es []*Element) []selenium.WebElement {
	out := make([]selenium.WebElement, len(es))
	for i, e := range es {
		out[i] = &webElement{e: e}
	}
	return out
}

func (w *webElement) Click() error {
	w.e.mu.Lock()
	defer w.e.mu.Unlock()
	if w.e.ClickErr != nil {
		return w.e.ClickErr
	}
	w.e.clicks++
	return nil
}

func (w *webElement) SendKeys(keys string) error {
	w.e.mu.Lock()
	defer w.e.mu.Unlock()
	if w.e.KeysErr != nil {
		return w.e.KeysErr
	}
	w.e.keys = append(w.e.keys, keys)
	return nil
}

func (w *webElement) FindElements(by, value string) ([]selenium.WebElement, error) {
	return wrap(collect(w.e.Children, by, value, nil)), nil
}

func (w *webElement) FindElement(by, value string) (selenium.WebElement, error) {
	es := collect(w.e.Children, by, value, nil)
	if len(es) == 0 {
		return nil, ErrNoSuchElement
	}
	return &webElement{e: es[0]}, nil
}

func (w *webElement) TagName() (string, error) { return w.e.Tag, nil }
func (w *webElement) Text() (string, error)    { return w.e.Text, nil }

func (w *webElement) IsDisplayed() (bool, error) {
	return w.e.displayed()
}

func (w *webElement) GetAttribute(name string) (string, error) {
	switch name {
	case "id":
		return w.e.ID, nil
	case "class":
		return w.e.Class, nil
	}
	if v, ok := w.e.Attrs[name]; ok {
		return v, nil
	}
	return "", errors.New("nil return value")
}

var (
	pngOnce sync.Once
	pngData []byte
)

// PNG returns the image every fake screenshot carries: a 1x1 white PNG.
func PNG() []byte {
	pngOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.White)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			panic(err)
		}
		pngData = buf.Bytes()
	})
	return append([]byte(nil), pngData...)
}
