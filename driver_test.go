package driverlib

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
	"github.com/tebeka/selenium/sauce"
	"gopkg.in/guregu/null.v3"

	"github.com/wanmail/driverlib/config"
	"github.com/wanmail/driverlib/internal/drivertest"
	"github.com/wanmail/driverlib/log"
)

// fastConfig removes every pause so tests run without waiting.
func fastConfig() config.Config {
	return config.Config{
		ActionPause:  config.NullDurationFrom(0),
		SettleDelay:  config.NullDurationFrom(0),
		LookupPause:  config.NullDurationFrom(0),
		PollInterval: config.NullDurationFrom(5 * time.Millisecond),
		WaitTimeout:  config.NullDurationFrom(time.Second),
	}
}

type harness struct {
	d       *Driver
	wd      *drivertest.Session
	fs      afero.Fs
	console *bytes.Buffer
}

func newHarness(t *testing.T, elements ...*drivertest.Element) *harness {
	t.Helper()
	h := &harness{
		wd:      drivertest.NewSession(elements...),
		fs:      afero.NewMemMapFs(),
		console: &bytes.Buffer{},
	}
	h.d = NewFromSession(h.wd, Chrome,
		WithConfig(fastConfig()),
		WithFs(h.fs),
		WithLogger(log.New(h.fs, "Logs", h.console)),
	)
	return h
}

// logText returns the run log written so far.
func (h *harness) logText(t *testing.T) string {
	t.Helper()
	data, err := afero.ReadFile(h.fs, filepath.Join("Logs", log.FileName))
	if err != nil {
		t.Fatalf("afero.ReadFile(log) returned error: %v", err)
	}
	return string(data)
}

// stubRemote replaces newRemote for the duration of the test.
func stubRemote(t *testing.T, wd selenium.WebDriver, err error) (gotCaps *selenium.Capabilities, gotExecutor *string) {
	t.Helper()
	var caps selenium.Capabilities
	var executor string
	prev := newRemote
	newRemote = func(c selenium.Capabilities, e string) (selenium.WebDriver, error) {
		caps, executor = c, e
		return wd, err
	}
	t.Cleanup(func() { newRemote = prev })
	return &caps, &executor
}

func TestNewWithExecutor(t *testing.T) {
	wd := drivertest.NewSession()
	caps, executor := stubRemote(t, wd, nil)
	fs := afero.NewMemMapFs()

	cfg := fastConfig()
	cfg.Executor = null.StringFrom("http://grid:4444/wd/hub")
	d, err := New(context.Background(), "Firefox", WithConfig(cfg), WithFs(fs), WithLogger(log.New(fs, "Logs", nil)))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if d.Browser() != Firefox {
		t.Errorf("d.Browser() = %v, want %v", d.Browser(), Firefox)
	}
	if d.Session() != wd {
		t.Errorf("d.Session() is not the session returned by NewRemote")
	}
	if *executor != "http://grid:4444/wd/hub" {
		t.Errorf("executor = %q, want the configured one", *executor)
	}
	if got := (*caps)["browserName"]; got != "firefox" {
		t.Errorf("caps[browserName] = %v, want firefox", got)
	}
	ff, ok := (*caps)[firefox.CapabilitiesKey].(firefox.Capabilities)
	if !ok {
		t.Fatalf("caps[%q] = %T, want firefox.Capabilities", firefox.CapabilitiesKey, (*caps)[firefox.CapabilitiesKey])
	}
	if diff := cmp.Diff([]string{"-headless"}, ff.Args); diff != "" {
		t.Errorf("firefox args mismatch (-want +got):\n%s", diff)
	}
	if !wd.Maximized() {
		t.Error("window was not maximized")
	}
}

func TestNewDefaultsToConfiguredBrowser(t *testing.T) {
	wd := drivertest.NewSession()
	caps, executor := stubRemote(t, wd, nil)
	fs := afero.NewMemMapFs()

	d, err := New(context.Background(), "", WithConfig(fastConfig()), WithFs(fs), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if d.Browser() != Chrome {
		t.Errorf("d.Browser() = %v, want %v", d.Browser(), Chrome)
	}
	if *executor != "" {
		t.Errorf("executor = %q, want empty for the client default", *executor)
	}
	c, ok := (*caps)[chrome.CapabilitiesKey].(chrome.Capabilities)
	if !ok {
		t.Fatalf("caps[%q] = %T, want chrome.Capabilities", chrome.CapabilitiesKey, (*caps)[chrome.CapabilitiesKey])
	}
	if got := c.Args[len(c.Args)-1]; got != "--headless" {
		t.Errorf("last chrome arg = %q, want --headless", got)
	}
}

func TestNewSauce(t *testing.T) {
	caps, executor := stubRemote(t, drivertest.NewSession(), nil)
	cfg := fastConfig()
	cfg.SauceUser = null.StringFrom("user")
	cfg.SauceAccessKey = null.StringFrom("key")
	cfg.SaucePlatform = null.StringFrom("Windows 10")
	cfg.Executor = null.StringFrom("http://ignored")

	if _, err := New(context.Background(), "chrome", WithConfig(cfg), WithLogger(log.Discard()), WithFs(afero.NewMemMapFs())); err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if want := sauce.Addr("user", "key"); *executor != want {
		t.Errorf("executor = %q, want %q", *executor, want)
	}
	if got := (*caps)["platform"]; got != "Windows 10" {
		t.Errorf("caps[platform] = %v, want Windows 10", got)
	}
}

func TestNewSessionError(t *testing.T) {
	wantErr := errors.New("session not created")
	stubRemote(t, nil, wantErr)
	fs := afero.NewMemMapFs()

	_, err := New(context.Background(), "chrome", WithConfig(fastConfig()), WithFs(fs), WithLogger(log.New(fs, "Logs", nil)))
	if !errors.Is(err, wantErr) {
		t.Fatalf("New() returned error %v, want %v", err, wantErr)
	}
	data, _ := afero.ReadFile(fs, filepath.Join("Logs", log.FileName))
	if !strings.Contains(string(data), "Unable to start chrome session") {
		t.Errorf("log does not record the failure:\n%s", data)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	stubRemote(t, drivertest.NewSession(), nil)
	cfg := fastConfig()
	cfg.Proxy = null.StringFrom("ftp://proxy:21")
	if _, err := New(context.Background(), "chrome", WithConfig(cfg), WithLogger(log.Discard())); err == nil {
		t.Fatal("New() with an ftp proxy returned nil error")
	}
}

func TestNavigate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.d.Navigate(ctx, "http://example.com/a"); err != nil {
		t.Fatalf("Navigate() returned error: %v", err)
	}
	u, err := h.d.CurrentURL()
	if err != nil {
		t.Fatalf("CurrentURL() returned error: %v", err)
	}
	if u != "http://example.com/a" {
		t.Errorf("CurrentURL() = %q, want http://example.com/a", u)
	}
	if !strings.Contains(h.logText(t), "Go to URL: http://example.com/a") {
		t.Errorf("log does not record the navigation")
	}
}

func TestNavigateError(t *testing.T) {
	h := newHarness(t)
	h.wd.GetErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := h.d.Navigate(context.Background(), "http://nowhere")
	var e *Error
	if !errors.As(err, &e) || e.Op != "Navigate" {
		t.Fatalf("Navigate() returned %v, want *Error for Navigate", err)
	}
}

func TestNavigateCancelledDuringSettle(t *testing.T) {
	h := newHarness(t)
	h.d.cfg.SettleDelay = config.NullDurationFrom(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.d.Navigate(ctx, "http://example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Navigate() returned %v, want context.Canceled", err)
	}
}

func TestSleep(t *testing.T) {
	h := newHarness(t)
	if err := h.d.Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("Sleep() returned error: %v", err)
	}
	text := h.logText(t)
	for _, want := range []string{"Starting function: Sleep", "Completed function: Sleep"} {
		if !strings.Contains(text, want) {
			t.Errorf("log does not contain %q", want)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.d.Sleep(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Sleep() returned %v, want context.DeadlineExceeded", err)
	}
}

func TestTeardown(t *testing.T) {
	h := newHarness(t, &drivertest.Element{ID: "x"})
	if err := h.d.Teardown(); err != nil {
		t.Fatalf("Teardown() returned error: %v", err)
	}
	if !h.wd.Closed() || !h.wd.Quitted() {
		t.Errorf("Teardown() closed=%t quit=%t, want both", h.wd.Closed(), h.wd.Quitted())
	}

	ctx := context.Background()
	checks := map[string]error{
		"Teardown": h.d.Teardown(),
		"Navigate": h.d.Navigate(ctx, "http://example.com"),
		"PressKey": h.d.PressDownArrow(ctx),
	}
	_, checks["Click"] = h.d.ClickByID(ctx, "x")
	_, checks["Text"] = h.d.Text(ctx, "x")
	_, checks["Screenshot"] = h.d.Screenshot(ctx, "late", false)
	_, checks["WaitUntilVisible"] = h.d.WaitForID(ctx, "x")
	_, checks["CurrentURL"] = h.d.CurrentURL()
	for op, err := range checks {
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("%s after Teardown returned %v, want ErrSessionClosed", op, err)
		}
	}
	if h.d.ExistsByID(ctx, "x") {
		t.Error("ExistsByID after Teardown = true, want false")
	}
}

func TestTeardownQuitFailsAfterClose(t *testing.T) {
	h := newHarness(t)
	h.wd.QuitErr = errors.New("invalid session id")
	if err := h.d.Teardown(); err != nil {
		t.Errorf("Teardown() returned %v, want nil once the window closed", err)
	}

	h = newHarness(t)
	h.wd.CloseErr = errors.New("no such window")
	h.wd.QuitErr = errors.New("unreachable")
	if err := h.d.Teardown(); err == nil {
		t.Error("Teardown() returned nil when both close and quit failed")
	}
}

func TestErrorMessage(t *testing.T) {
	sel := Class("row").At(2)
	err := opError("Click", &sel, ErrIndexOutOfRange)
	if got, want := err.Error(), `Click class="row"[2]: index out of range`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := opError("Navigate", nil, ErrSessionClosed).Error(), "Navigate: session closed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
