package driverlib

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tebeka/selenium"
)

// ActionOption configures Click and SendKeys.
type ActionOption func(*actionOptions)

type actionOptions struct {
	screenshot string
	pause      time.Duration
	index      *int
}

// WithScreenshot captures a screenshot named name after the action.
func WithScreenshot(name string) ActionOption {
	return func(o *actionOptions) {
		o.screenshot = name
	}
}

// WithPause replaces ActionPause for one action.
func WithPause(d time.Duration) ActionOption {
	return func(o *actionOptions) {
		o.pause = d
	}
}

// WithIndex overrides the index of the selector.
func WithIndex(i int) ActionOption {
	return func(o *actionOptions) {
		o.index = &i
	}
}

// ActionResult reports the parts of an action that failed after its element
// was resolved. Those failures are logged and do not abort the run; callers
// decide with Err whether they are fatal.
type ActionResult struct {
	Selector      Selector
	ActionErr     error
	ScreenshotErr error
	// Screenshot is the path of the captured screenshot, if any.
	Screenshot string
}

// Err returns ActionErr, or ScreenshotErr when the action itself succeeded.
func (r ActionResult) Err() error {
	if r.ActionErr != nil {
		return r.ActionErr
	}
	return r.ScreenshotErr
}

// Click pauses, resolves the element, pauses, clicks it, pauses and then
// takes the requested screenshot. A failure to resolve the element is
// returned as error; a failed click only shows in the result.
func (d *Driver) Click(ctx context.Context, sel Selector, opts ...ActionOption) (ActionResult, error) {
	return d.act(ctx, "Click", sel, opts, func(el selenium.WebElement) error {
		return el.Click()
	}, "Clicked: ", "Unable to click element: ")
}

// ClickByID clicks the element with the given id.
func (d *Driver) ClickByID(ctx context.Context, id string, opts ...ActionOption) (ActionResult, error) {
	return d.Click(ctx, ID(id), opts...)
}

// ClickByClass clicks the index-th element with the given class.
func (d *Driver) ClickByClass(ctx context.Context, class string, index int, opts ...ActionOption) (ActionResult, error) {
	return d.Click(ctx, Class(class).At(index), opts...)
}

// SendKeys delivers keys to the element sel addresses, paced like Click.
func (d *Driver) SendKeys(ctx context.Context, sel Selector, keys string, opts ...ActionOption) (ActionResult, error) {
	return d.act(ctx, "SendKeys", sel, opts, func(el selenium.WebElement) error {
		return el.SendKeys(keys)
	}, "Sent keys to: ", "Unable to send keys to element: ")
}

// SendKeysByID delivers keys to the element with the given id.
func (d *Driver) SendKeysByID(ctx context.Context, id, keys string, opts ...ActionOption) (ActionResult, error) {
	return d.SendKeys(ctx, ID(id), keys, opts...)
}

func (d *Driver) act(ctx context.Context, op string, sel Selector, opts []ActionOption, do func(selenium.WebElement) error, okMsg, failMsg string) (ActionResult, error) {
	o := actionOptions{pause: d.cfg.ActionPause.Duration}
	for _, opt := range opts {
		opt(&o)
	}
	if o.index != nil {
		sel = sel.At(*o.index)
	}
	res := ActionResult{Selector: sel}
	if err := d.check(op); err != nil {
		return res, err
	}
	d.log.Enter(op)

	if err := sleep(ctx, o.pause); err != nil {
		return res, err
	}
	el, err := d.resolve(sel)
	if err != nil {
		d.logResolveError(op, sel, err)
		return res, opError(op, &sel, err)
	}
	if err := sleep(ctx, o.pause); err != nil {
		return res, err
	}

	if err := do(el); err != nil {
		d.log.Error(failMsg+sel.Value, op, err)
		res.ActionErr = opError(op, &sel, err)
	} else {
		d.log.Write(okMsg+sel.Value, "", "")
	}
	if err := sleep(ctx, o.pause); err != nil {
		return res, err
	}

	if o.screenshot != "" {
		path, err := d.Screenshot(ctx, o.screenshot, false)
		res.Screenshot = path
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			d.log.Error("Unable to capture screenshot: "+o.screenshot, op, err)
			res.ScreenshotErr = err
		}
	}
	d.log.Leave(op)
	return res, nil
}

func (d *Driver) logResolveError(op string, sel Selector, err error) {
	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		d.log.Write("Array index: "+strconv.Itoa(sel.Index)+" is invalid for element: "+sel.Value, op, "")
	case errors.Is(err, ErrUnsupportedSelector):
		d.log.Write("Selection method: "+sel.By.String()+" is not supported", op, "")
	default:
		d.log.Error("Unable to select element: "+sel.Value+" using: "+sel.By.String(), op, err)
	}
}
