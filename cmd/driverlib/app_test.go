package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanmail/driverlib"
	"github.com/wanmail/driverlib/internal/drivertest"
)

const testConfig = `{
  "actionPause": "0s",
  "settleDelay": "0s",
  "lookupPause": "0s",
  "pollInterval": "5ms",
  "waitTimeout": "100ms",
  "reportDir": "out/report",
  "logDir": "out/logs"
}`

type cliFixture struct {
	fs      afero.Fs
	wd      *drivertest.Session
	backend string
	started int
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	f := &cliFixture{
		fs: afero.NewMemMapFs(),
		wd: drivertest.NewSession(
			&drivertest.Element{ID: "submit", Class: "button primary", Tag: "input"},
			&drivertest.Element{ID: "greeting", Class: "note", Tag: "span", Text: "Hello, driverlib"},
		),
	}
	require.NoError(t, afero.WriteFile(f.fs, "driverlib.json", []byte(testConfig), 0o644))

	prevFs, prevDriver, prevColor := appFs, newDriver, color.NoColor
	appFs = f.fs
	newDriver = func(ctx context.Context, backend string, opts ...driverlib.Option) (*driverlib.Driver, error) {
		f.started++
		f.backend = backend
		return driverlib.NewFromSession(f.wd, driverlib.ParseBrowser(backend), opts...), nil
	}
	color.NoColor = true
	t.Cleanup(func() {
		appFs, newDriver, color.NoColor = prevFs, prevDriver, prevColor
	})
	return f
}

func (f *cliFixture) writeFlow(t *testing.T, path, doc string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, path, []byte(doc), 0o644))
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"driverlib"}, args...))
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run("version")
	require.NoError(t, err)
	assert.Equal(t, "driverlib dev\n", out)
}

func TestRunFlows(t *testing.T) {
	f := newCLIFixture(t)
	f.writeFlow(t, "flows/greet.yaml", "name: Greet\nsteps:\n  - assertText:\n      id: greeting\n      contains: Hello\n")
	f.writeFlow(t, "flows/submit.yaml", "name: Submit\nsteps:\n  - click: submit\n")

	out, err := run("run", "--config", "driverlib.json", "--browser", "firefox", "flows/greet.yaml", "flows/submit.yaml")
	require.NoError(t, err)

	assert.Equal(t, 1, f.started)
	assert.Equal(t, "firefox", f.backend)
	assert.Contains(t, out, "PASS Greet: Completed 1 step\n")
	assert.Contains(t, out, "PASS Submit: Completed 1 step\n")
	assert.Contains(t, out, "2 passed, 0 failed. Report: out/report/report")
	assert.True(t, f.wd.Quitted(), "the session was not torn down")

	reports, err := afero.ReadDir(f.fs, "out/report")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	data, err := afero.ReadFile(f.fs, "out/report/"+reports[0].Name())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(data)), "</html>"), "the report was not ended")
}

func TestRunFlowsFailure(t *testing.T) {
	f := newCLIFixture(t)
	f.writeFlow(t, "ok.yaml", "steps:\n  - click: submit\n")
	f.writeFlow(t, "broken.yaml", "steps:\n  - click: missing\n")

	out, err := run("run", "-c", "driverlib.json", "ok.yaml", "broken.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFlowsFailed), "err = %v", err)
	assert.Equal(t, "1 of 2 flows failed", err.Error())
	assert.Contains(t, out, "FAIL broken: step 1 (click id=\"missing\")")
	assert.Contains(t, out, "1 passed, 1 failed.")
}

func TestRunParsesBeforeStarting(t *testing.T) {
	f := newCLIFixture(t)
	f.writeFlow(t, "bad.yaml", "steps:\n  - tapOn: x\n")

	_, err := run("run", "-c", "driverlib.json", "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml:2: unknown step type: tapOn")
	assert.Equal(t, 0, f.started, "a browser was started for an invalid flow")
}

func TestRunErrors(t *testing.T) {
	f := newCLIFixture(t)

	_, err := run("run")
	assert.EqualError(t, err, "run needs at least one flow file")

	_, err = run("run", "-c", "missing.json", "x.yaml")
	assert.Error(t, err)

	_, err = run("run", "-c", "driverlib.json", "missing.yaml")
	assert.Error(t, err)
	assert.Equal(t, 0, f.started)
}

func TestRunSessionError(t *testing.T) {
	f := newCLIFixture(t)
	f.writeFlow(t, "ok.yaml", "steps:\n  - click: submit\n")
	newDriver = func(context.Context, string, ...driverlib.Option) (*driverlib.Driver, error) {
		return nil, errors.New("session not created")
	}

	_, err := run("run", "-c", "driverlib.json", "ok.yaml")
	assert.EqualError(t, err, "session not created")
}

func TestFetchNothing(t *testing.T) {
	out, err := run("fetch", "--skip-chrome", "--skip-gecko")
	require.NoError(t, err)
	assert.Empty(t, out)
}
