package driverlib

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/sauce"

	"github.com/wanmail/driverlib/config"
	"github.com/wanmail/driverlib/log"
)

// newRemote creates WebDriver sessions. Tests replace it.
var newRemote = selenium.NewRemote

// Option configures a Driver.
type Option func(*options)

type options struct {
	cfg         config.Config
	logger      *log.Logger
	fs          afero.Fs
	serviceOpts []ServiceOption
}

// WithConfig layers cfg over the defaults.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = o.cfg.Apply(cfg)
	}
}

// WithLogger sets the run log. By default the Driver logs to
// <LogDir>/log.txt and echoes to stdout.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFs sets the file system screenshots and the default log are written to.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithServiceOptions passes options to the local driver server.
func WithServiceOptions(opts ...ServiceOption) Option {
	return func(o *options) {
		o.serviceOpts = append(o.serviceOpts, opts...)
	}
}

func newOptions(opts []Option) *options {
	o := &options{cfg: config.NewConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.logger == nil {
		o.logger = log.New(o.fs, o.cfg.LogDir.String, os.Stdout)
	}
	return o
}

// Driver owns one browser session and performs logged, paced UI operations
// on it. A Driver is not safe for concurrent use.
type Driver struct {
	wd      selenium.WebDriver
	browser Browser
	service *Service

	cfg config.Config
	log *log.Logger
	fs  afero.Fs

	closed bool
}

// New starts a session on the backend named by backendName, or the
// configured browser when backendName is empty. When no executor is
// configured and a driver path is, the driver server is started locally.
// Sauce Labs credentials take precedence over both.
func New(ctx context.Context, backendName string, opts ...Option) (*Driver, error) {
	o := newOptions(opts)
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if backendName == "" {
		backendName = cfg.Browser.String
	}
	b := ParseBrowser(backendName)
	o.logger.Enter("New")

	caps, err := b.Capabilities(CapabilityOptions{
		Headless:    cfg.Headless.Bool,
		BrowserPath: cfg.BrowserPath.String,
		Proxy:       cfg.Proxy.String,
	})
	if err != nil {
		o.logger.Error("Unable to build capabilities", "New", err)
		return nil, err
	}

	var svc *Service
	executor := cfg.Executor.String
	switch {
	case cfg.UseSauce():
		executor = sauce.Addr(cfg.SauceUser.String, cfg.SauceAccessKey.String)
		sc := sauce.Capabilities{
			Browser:  b.String(),
			Platform: cfg.SaucePlatform.String,
			TestName: "driverlib",
		}
		m, err := sc.ToMap()
		if err != nil {
			return nil, fmt.Errorf("building Sauce Labs capabilities: %w", err)
		}
		for k, v := range m {
			caps[k] = v
		}
	case executor == "" && cfg.DriverPath.String != "":
		sopts := append([]ServiceOption{ReadyTimeout(cfg.ServiceTimeout.Duration)}, o.serviceOpts...)
		svc, err = StartService(ctx, b, cfg.DriverPath.String, int(cfg.Port.Int64), sopts...)
		if err != nil {
			o.logger.Error("Unable to start driver server: "+cfg.DriverPath.String, "New", err)
			return nil, err
		}
		executor = svc.Addr()
	}

	wd, err := newRemote(caps, executor)
	if err != nil {
		o.logger.Error("Unable to start "+b.String()+" session", "New", err)
		if svc != nil {
			if serr := svc.Stop(); serr != nil {
				o.logger.Error("Unable to stop driver server", "New", serr)
			}
		}
		return nil, err
	}

	d := &Driver{
		wd:      wd,
		browser: b,
		service: svc,
		cfg:     cfg,
		log:     o.logger,
		fs:      o.fs,
	}
	d.maximize()
	d.log.Leave("New")
	return d, nil
}

// NewFromSession wraps an existing session. Teardown quits it.
func NewFromSession(wd selenium.WebDriver, browser Browser, opts ...Option) *Driver {
	o := newOptions(opts)
	return &Driver{
		wd:      wd,
		browser: browser,
		cfg:     o.cfg,
		log:     o.logger,
		fs:      o.fs,
	}
}

func (d *Driver) maximize() {
	if err := d.wd.MaximizeWindow(""); err != nil {
		d.log.Error("Unable to maximize window", "New", err)
	}
}

// Session returns the underlying WebDriver session.
func (d *Driver) Session() selenium.WebDriver { return d.wd }

// Browser returns the backend of the session.
func (d *Driver) Browser() Browser { return d.browser }

// Config returns the effective configuration.
func (d *Driver) Config() config.Config { return d.cfg }

// Logger returns the run log.
func (d *Driver) Logger() *log.Logger { return d.log }

func (d *Driver) check(op string) error {
	if d.closed {
		return opError(op, nil, ErrSessionClosed)
	}
	return nil
}

// Navigate loads url and waits SettleDelay. The page load itself is not
// verified.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.check("Navigate"); err != nil {
		return err
	}
	d.log.Enter("Navigate")
	d.log.Write("Go to URL: "+url, "", "")
	if err := d.wd.Get(url); err != nil {
		d.log.Error("Unable to go to URL: "+url, "Navigate", err)
		return opError("Navigate", nil, err)
	}
	if err := sleep(ctx, d.cfg.SettleDelay.Duration); err != nil {
		return err
	}
	d.log.Leave("Navigate")
	return nil
}

// CurrentURL returns the URL of the current page.
func (d *Driver) CurrentURL() (string, error) {
	if err := d.check("CurrentURL"); err != nil {
		return "", err
	}
	u, err := d.wd.CurrentURL()
	if err != nil {
		return "", opError("CurrentURL", nil, err)
	}
	return u, nil
}

// Sleep pauses for dur. It returns ctx.Err() when cancelled.
func (d *Driver) Sleep(ctx context.Context, dur time.Duration) error {
	d.log.Enter("Sleep")
	if err := sleep(ctx, dur); err != nil {
		return err
	}
	d.log.Leave("Sleep")
	return nil
}

// Teardown closes the window, quits the session and stops the local driver
// server. Every later operation fails with ErrSessionClosed.
func (d *Driver) Teardown() error {
	if err := d.check("Teardown"); err != nil {
		return err
	}
	d.log.Enter("Teardown")
	d.closed = true

	var err error
	// Closing the last window ends the session in some drivers, after which
	// Quit fails. The session is only left behind when both fail.
	closeErr := d.wd.Close()
	if closeErr != nil {
		d.log.Error("Unable to close window", "Teardown", closeErr)
	}
	quitErr := d.wd.Quit()
	if quitErr != nil {
		d.log.Error("Unable to quit session", "Teardown", quitErr)
		if closeErr != nil {
			err = opError("Teardown", nil, quitErr)
		}
	}
	if d.service != nil {
		if serr := d.service.Stop(); serr != nil {
			d.log.Error("Unable to stop driver server", "Teardown", serr)
			if err == nil {
				err = opError("Teardown", nil, serr)
			}
		}
	}
	d.log.Leave("Teardown")
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
