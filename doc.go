/*
Package driverlib drives a web browser for UI tests through a WebDriver
session and keeps a run log of everything it does.

A Driver owns one session on Chrome, Firefox or Internet Explorer. It either
connects to a running WebDriver server, starts chromedriver, geckodriver or
IEDriverServer locally, or runs on Sauce Labs. Every operation is paced with
fixed pauses, written to the run log and, on request, followed by a
screenshot. Element failures come back as errors wrapping ErrNotFound,
ErrIndexOutOfRange or ErrUnsupportedSelector.

Package report turns test cases into an HTML report, package flow runs
declarative YAML test flows against a Driver and package config layers the
settings.

Example usage:

	package main

	import (
		"context"
		"fmt"

		"github.com/spf13/afero"

		"github.com/wanmail/driverlib"
		"github.com/wanmail/driverlib/config"
		"github.com/wanmail/driverlib/report"
	)

	// Errors are ignored for brevity.

	func main() {
		ctx := context.Background()
		cfg, _ := config.Load(afero.NewOsFs(), "driverlib.json")
		d, _ := driverlib.New(ctx, "chrome", driverlib.WithConfig(cfg))
		defer d.Teardown()

		r, _ := report.New(afero.NewOsFs(), cfg.ReportDir.String)
		defer r.End()

		tc := report.NewTestCase("Search", "Results are shown")
		d.Navigate(ctx, "https://example.com")
		d.SendKeysByID(ctx, "q", "driverlib")
		d.ClickByID(ctx, "submit", driverlib.WithScreenshot("search"))

		_, err := d.WaitForID(ctx, "results")
		tc.SetActualOutcome(fmt.Sprint(err))
		tc.SetResult(err == nil)
		r.AddTestCase(tc)
	}
*/
package driverlib
