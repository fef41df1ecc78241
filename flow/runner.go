package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/wanmail/driverlib"
	"github.com/wanmail/driverlib/log"
	"github.com/wanmail/driverlib/report"
)

// Runner runs flows on one Driver.
type Runner struct {
	Driver *driverlib.Driver
	// Report receives one row per flow. It may be nil.
	Report *report.Report
	// Logger defaults to the Driver's logger.
	Logger *log.Logger
}

// Run executes the steps of f in order and stops at the first failure, after
// capturing <flow>-step<N>.png in the error screenshot folder. The returned
// TestCase carries the outcome and has been added to the Report.
//
// A click or type that finds its element but fails to act on it only fails
// the flow when the step is strict.
func (r *Runner) Run(ctx context.Context, f *Flow) *report.TestCase {
	l := r.logger()
	l.Enter("Flow " + f.Name)
	tc := report.NewTestCase(f.Name, f.Expected)

	if err := r.run(ctx, f); err != nil {
		tc.SetActualOutcome(err.Error())
		tc.SetResult(false)
	} else {
		tc.SetActualOutcome(completed(len(f.Steps)))
		tc.SetResult(true)
	}

	if r.Report == nil {
		tc.SetEndTime(time.Now())
	} else if err := r.Report.AddTestCase(tc); err != nil {
		l.Error("Unable to add test case: "+f.Name, "Run", err)
	}
	l.Leave("Flow " + f.Name)
	return tc
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return r.Driver.Logger()
}

func (r *Runner) run(ctx context.Context, f *Flow) error {
	if f.URL != "" {
		if err := r.Driver.Navigate(ctx, f.URL); err != nil {
			return r.fail(ctx, f, 0, Step{Type: StepNavigate, URL: f.URL}, err)
		}
	}
	for i, s := range f.Steps {
		if err := r.step(ctx, s); err != nil {
			return r.fail(ctx, f, i+1, s, err)
		}
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, f *Flow, n int, s Step, err error) error {
	l := r.logger()
	err = fmt.Errorf("step %d (%s): %w", n, s, err)
	l.Error("Flow failed: "+f.Name, "Run", err)
	if ctx.Err() != nil {
		return err
	}
	name := fmt.Sprintf("%s-step%d", fileName(f.Name), n)
	if _, serr := r.Driver.Screenshot(ctx, name, true); serr != nil {
		l.Error("Unable to capture error screenshot: "+name, "Run", serr)
	}
	return err
}

func (r *Runner) step(ctx context.Context, s Step) error {
	d := r.Driver
	switch s.Type {
	case StepNavigate:
		return d.Navigate(ctx, s.URL)

	case StepWaitVisible:
		_, err := d.WaitUntilVisible(ctx, s.Selector(), s.Timeout)
		return err

	case StepClick:
		res, err := d.Click(ctx, s.Selector(), actionOptions(s)...)
		return actionErr(s, res, err)

	case StepInput:
		res, err := d.SendKeys(ctx, s.Selector(), s.Text, actionOptions(s)...)
		return actionErr(s, res, err)

	case StepScreenshot:
		_, err := d.Screenshot(ctx, s.Name, s.ErrorFolder)
		return err

	case StepSleep:
		return d.Sleep(ctx, s.Duration)

	case StepPressDown:
		return d.PressDownArrow(ctx)

	case StepAssertVisible:
		if s.Timeout > 0 {
			_, err := d.WaitUntilVisible(ctx, s.Selector(), s.Timeout)
			return err
		}
		if !d.Exists(ctx, s.Selector()) {
			return fmt.Errorf("%s is not visible", s.Selector())
		}
		return nil

	case StepAssertNotVisible:
		if d.Exists(ctx, s.Selector()) {
			return fmt.Errorf("%s is visible", s.Selector())
		}
		return ctx.Err()

	case StepAssertText:
		text, err := d.Text(ctx, s.ID)
		if err != nil {
			return err
		}
		if s.Text != "" && text != s.Text {
			return fmt.Errorf("text is %q, want %q", text, s.Text)
		}
		if s.Contains != "" && !strings.Contains(text, s.Contains) {
			return fmt.Errorf("text is %q, want it to contain %q", text, s.Contains)
		}
		return nil

	case StepAssertURL:
		u, err := d.CurrentURL()
		if err != nil {
			return err
		}
		if s.URL != "" && u != s.URL {
			return fmt.Errorf("url is %q, want %q", u, s.URL)
		}
		if s.Contains != "" && !strings.Contains(u, s.Contains) {
			return fmt.Errorf("url is %q, want it to contain %q", u, s.Contains)
		}
		return nil

	case StepAssertCount:
		n, err := d.CountByClass(ctx, s.Class)
		if errors.Is(err, driverlib.ErrNotFound) {
			n, err = 0, nil
		}
		if err != nil {
			return err
		}
		if n != s.Count {
			return fmt.Errorf("found %d elements with class %q, want %d", n, s.Class, s.Count)
		}
		return nil
	}
	return fmt.Errorf("unknown step type: %s", s.Type)
}

func actionOptions(s Step) []driverlib.ActionOption {
	var opts []driverlib.ActionOption
	if s.Screenshot != "" {
		opts = append(opts, driverlib.WithScreenshot(s.Screenshot))
	}
	if s.Pause > 0 {
		opts = append(opts, driverlib.WithPause(s.Pause))
	}
	return opts
}

func actionErr(s Step, res driverlib.ActionResult, err error) error {
	if err != nil {
		return err
	}
	if s.Strict && res.ActionErr != nil {
		return res.ActionErr
	}
	return nil
}

func completed(n int) string {
	if n == 1 {
		return "Completed 1 step"
	}
	return fmt.Sprintf("Completed %d steps", n)
}

// fileName turns a flow name into something safe to use as a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
