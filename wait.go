package driverlib

import (
	"context"
	"time"

	"github.com/tebeka/selenium"
)

// findAll returns every element sel locates, ignoring sel.Index.
func (d *Driver) findAll(sel Selector) ([]selenium.WebElement, error) {
	by, err := sel.By.locator()
	if err != nil {
		return nil, err
	}
	return d.wd.FindElements(by, sel.Value)
}

// resolve returns the element sel addresses.
func (d *Driver) resolve(sel Selector) (selenium.WebElement, error) {
	es, err := d.findAll(sel)
	if err != nil {
		return nil, err
	}
	if len(es) == 0 {
		return nil, ErrNotFound
	}
	if sel.Index < 0 || sel.Index >= len(es) {
		return nil, ErrIndexOutOfRange
	}
	return es[sel.Index], nil
}

// WaitUntilVisible polls every PollInterval until the element sel addresses
// is displayed and returns it. A timeout of zero or less uses WaitTimeout.
// When the timeout passes first the error wraps ErrNotFound.
func (d *Driver) WaitUntilVisible(ctx context.Context, sel Selector, timeout time.Duration) (selenium.WebElement, error) {
	if err := d.check("WaitUntilVisible"); err != nil {
		return nil, err
	}
	if _, err := sel.By.locator(); err != nil {
		d.log.Write("Selection method: "+sel.By.String()+" is not supported", "WaitUntilVisible", "")
		return nil, opError("WaitUntilVisible", &sel, err)
	}
	if timeout <= 0 {
		timeout = d.cfg.WaitTimeout.Duration
	}
	d.log.Enter("WaitUntilVisible")

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	t := time.NewTicker(d.cfg.PollInterval.Duration)
	defer t.Stop()
	for {
		if el := d.visible(sel); el != nil {
			d.log.Leave("WaitUntilVisible")
			return el, nil
		}
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, opError("WaitUntilVisible", &sel, err)
			}
			d.log.Write("Element not visible after "+timeout.String()+": "+sel.String(), "WaitUntilVisible", "")
			return nil, opError("WaitUntilVisible", &sel, ErrNotFound)
		case <-t.C:
		}
	}
}

// visible returns the element sel addresses when it is displayed.
func (d *Driver) visible(sel Selector) selenium.WebElement {
	el, err := d.resolve(sel)
	if err != nil {
		return nil
	}
	if ok, err := el.IsDisplayed(); err != nil || !ok {
		return nil
	}
	return el
}

// WaitForID waits up to WaitTimeout for the element with the given id.
func (d *Driver) WaitForID(ctx context.Context, id string) (selenium.WebElement, error) {
	return d.WaitUntilVisible(ctx, ID(id), 0)
}
