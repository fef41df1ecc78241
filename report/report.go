// Package report writes the HTML automation report: one document per run with
// one table row per recorded TestCase.
//
// The document is built append-only. New writes the header, every Add call
// opens the file, appends one line and closes it again, and End writes the
// closing tags. A run that dies before End leaves a document that is readable
// up to the last row.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// DefaultDir is the directory reports are written to when none is configured.
const DefaultDir = "Report"

// NameFormat is the layout of the timestamp embedded in report file names.
const NameFormat = "2006-02-1-15-04-05"

// Header opens the document and the results table.
const Header = `<html><head><title>Automation Report</title><style>table, td {border: 1px solid black;}</style></head><body><table><tr><th colspan="6">Automation Results</th></tr><tr></tr><tr><td>Test Name</td><td>Expected Outcome</td><td>Start Time</td><td>End Time</td><td>Actual Outcome</td><td>Test Result</td></tr>`

// Footer closes the results table and the document.
const Footer = `</table></body></html>`

// ErrClosed is returned when writing to a report after End.
var ErrClosed = errors.New("report: already ended")

// Option configures a Report.
type Option func(*Report)

// WithClock replaces time.Now for the creation and end-time stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Report) {
		r.now = now
	}
}

// Report owns one HTML document.
type Report struct {
	fs      afero.Fs
	dir     string
	name    string
	created time.Time
	now     func() time.Time

	mu                    sync.Mutex
	ended                 bool
	passed, failed, unset int
}

// New creates dir when missing, names the document after the current time and
// writes the header.
func New(fs afero.Fs, dir string, opts ...Option) (*Report, error) {
	r := &Report{fs: fs, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory %q: %w", dir, err)
	}
	r.created = r.now()
	r.name = "report" + r.created.Format(NameFormat) + ".html"
	if err := r.Begin(); err != nil {
		return nil, err
	}
	return r, nil
}

// Name returns the file name of the document.
func (r *Report) Name() string { return r.name }

// Path returns the full path of the document.
func (r *Report) Path() string { return filepath.Join(r.dir, r.name) }

// Created returns the time the report was created.
func (r *Report) Created() time.Time { return r.created }

// Begin writes the header fragment. New calls it.
func (r *Report) Begin() error {
	return r.Add(Header)
}

// Add appends fragment as one line.
func (r *Report) Add(fragment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return ErrClosed
	}
	return r.appendLine(fragment)
}

// AddTestCase stamps the end time of tc and appends its row.
func (r *Report) AddTestCase(tc *TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return ErrClosed
	}
	tc.SetEndTime(r.now())
	if err := r.appendLine(tc.Render()); err != nil {
		return err
	}
	switch tc.Result() {
	case Pass:
		r.passed++
	case Fail:
		r.failed++
	default:
		r.unset++
	}
	return nil
}

// End writes the footer. Only the first call has an effect; later calls and
// further writes return ErrClosed.
func (r *Report) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return ErrClosed
	}
	if err := r.appendLine(Footer); err != nil {
		return err
	}
	r.ended = true
	return nil
}

// Counts returns how many added rows passed, failed or carried no result.
func (r *Report) Counts() (passed, failed, unset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passed, r.failed, r.unset
}

func (r *Report) appendLine(s string) (err error) {
	path := r.Path()
	f, err := r.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening report %q: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing report %q: %w", path, cerr)
		}
	}()
	if _, err := f.WriteString(s + "\n"); err != nil {
		return fmt.Errorf("writing report %q: %w", path, err)
	}
	return nil
}
