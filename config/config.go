// Package config holds the settings of a driverlib run.
//
// Every field is nullable so that configurations from several sources can be
// layered with Apply: a field only overrides when it was set. Load layers the
// defaults, a JSON file and DRIVERLIB_* environment variables in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"gopkg.in/guregu/null.v3"
)

// Config is the configuration of a Driver and the tooling around it.
type Config struct {
	// Browser selects the backend: chrome, firefox or ie.
	Browser null.String `json:"browser" envconfig:"DRIVERLIB_BROWSER"`
	// Executor is the URL of a running WebDriver server. When empty and
	// DriverPath is set, a local server is started.
	Executor    null.String `json:"executor" envconfig:"DRIVERLIB_EXECUTOR"`
	DriverPath  null.String `json:"driverPath" envconfig:"DRIVERLIB_DRIVER_PATH"`
	BrowserPath null.String `json:"browserPath" envconfig:"DRIVERLIB_BROWSER_PATH"`
	// Port of the local WebDriver server; 0 picks a free port.
	Port     null.Int  `json:"port" envconfig:"DRIVERLIB_PORT"`
	Headless null.Bool `json:"headless" envconfig:"DRIVERLIB_HEADLESS"`

	LogDir             null.String `json:"logDir" envconfig:"DRIVERLIB_LOG_DIR"`
	ReportDir          null.String `json:"reportDir" envconfig:"DRIVERLIB_REPORT_DIR"`
	ScreenshotDir      null.String `json:"screenshotDir" envconfig:"DRIVERLIB_SCREENSHOT_DIR"`
	ErrorScreenshotDir null.String `json:"errorScreenshotDir" envconfig:"DRIVERLIB_ERROR_SCREENSHOT_DIR"`

	WaitTimeout    NullDuration `json:"waitTimeout" envconfig:"DRIVERLIB_WAIT_TIMEOUT"`
	PollInterval   NullDuration `json:"pollInterval" envconfig:"DRIVERLIB_POLL_INTERVAL"`
	ActionPause    NullDuration `json:"actionPause" envconfig:"DRIVERLIB_ACTION_PAUSE"`
	SettleDelay    NullDuration `json:"settleDelay" envconfig:"DRIVERLIB_SETTLE_DELAY"`
	LookupPause    NullDuration `json:"lookupPause" envconfig:"DRIVERLIB_LOOKUP_PAUSE"`
	ServiceTimeout NullDuration `json:"serviceTimeout" envconfig:"DRIVERLIB_SERVICE_TIMEOUT"`

	SauceUser      null.String `json:"sauceUser" envconfig:"DRIVERLIB_SAUCE_USER"`
	SauceAccessKey null.String `json:"sauceAccessKey" envconfig:"DRIVERLIB_SAUCE_ACCESS_KEY"`
	SaucePlatform  null.String `json:"saucePlatform" envconfig:"DRIVERLIB_SAUCE_PLATFORM"`

	// Proxy is an http, https or socks5 URL the browser sends traffic through.
	Proxy null.String `json:"proxy" envconfig:"DRIVERLIB_PROXY"`
}

// NewConfig returns the defaults. The values are not Valid, so applying the
// defaults never overrides a configured value.
func NewConfig() Config {
	return Config{
		Browser:            null.NewString("chrome", false),
		Port:               null.NewInt(0, false),
		Headless:           null.NewBool(true, false),
		LogDir:             null.NewString("Logs", false),
		ReportDir:          null.NewString("Report", false),
		ScreenshotDir:      null.NewString("Screenshots", false),
		ErrorScreenshotDir: null.NewString("ErrorScreenshots", false),
		WaitTimeout:        NewNullDuration(10*time.Minute, false),
		PollInterval:       NewNullDuration(500*time.Millisecond, false),
		ActionPause:        NewNullDuration(5*time.Second, false),
		SettleDelay:        NewNullDuration(2*time.Second, false),
		LookupPause:        NewNullDuration(2*time.Second, false),
		ServiceTimeout:     NewNullDuration(30*time.Second, false),
	}
}

// Apply returns c with every valid field of cfg copied over it.
func (c Config) Apply(cfg Config) Config {
	if cfg.Browser.Valid {
		c.Browser = cfg.Browser
	}
	if cfg.Executor.Valid {
		c.Executor = cfg.Executor
	}
	if cfg.DriverPath.Valid {
		c.DriverPath = cfg.DriverPath
	}
	if cfg.BrowserPath.Valid {
		c.BrowserPath = cfg.BrowserPath
	}
	if cfg.Port.Valid {
		c.Port = cfg.Port
	}
	if cfg.Headless.Valid {
		c.Headless = cfg.Headless
	}
	if cfg.LogDir.Valid {
		c.LogDir = cfg.LogDir
	}
	if cfg.ReportDir.Valid {
		c.ReportDir = cfg.ReportDir
	}
	if cfg.ScreenshotDir.Valid {
		c.ScreenshotDir = cfg.ScreenshotDir
	}
	if cfg.ErrorScreenshotDir.Valid {
		c.ErrorScreenshotDir = cfg.ErrorScreenshotDir
	}
	if cfg.WaitTimeout.Valid {
		c.WaitTimeout = cfg.WaitTimeout
	}
	if cfg.PollInterval.Valid {
		c.PollInterval = cfg.PollInterval
	}
	if cfg.ActionPause.Valid {
		c.ActionPause = cfg.ActionPause
	}
	if cfg.SettleDelay.Valid {
		c.SettleDelay = cfg.SettleDelay
	}
	if cfg.LookupPause.Valid {
		c.LookupPause = cfg.LookupPause
	}
	if cfg.ServiceTimeout.Valid {
		c.ServiceTimeout = cfg.ServiceTimeout
	}
	if cfg.SauceUser.Valid {
		c.SauceUser = cfg.SauceUser
	}
	if cfg.SauceAccessKey.Valid {
		c.SauceAccessKey = cfg.SauceAccessKey
	}
	if cfg.SaucePlatform.Valid {
		c.SaucePlatform = cfg.SaucePlatform
	}
	if cfg.Proxy.Valid {
		c.Proxy = cfg.Proxy
	}
	return c
}

// UseSauce reports whether Sauce Labs credentials are configured.
func (c Config) UseSauce() bool {
	return c.SauceUser.String != "" && c.SauceAccessKey.String != ""
}

// Validate checks the values of c.
func (c Config) Validate() error {
	for name, d := range map[string]NullDuration{
		"waitTimeout":    c.WaitTimeout,
		"pollInterval":   c.PollInterval,
		"actionPause":    c.ActionPause,
		"settleDelay":    c.SettleDelay,
		"lookupPause":    c.LookupPause,
		"serviceTimeout": c.ServiceTimeout,
	} {
		if d.Duration < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d.Duration)
		}
	}
	if c.PollInterval.Duration == 0 {
		return errors.New("pollInterval must be positive")
	}
	if p := c.Port.Int64; p < 0 || p > 65535 {
		return fmt.Errorf("port %d is out of range", p)
	}
	if (c.SauceUser.String == "") != (c.SauceAccessKey.String == "") {
		return errors.New("sauceUser and sauceAccessKey must be set together")
	}
	if c.Proxy.String != "" {
		u, err := url.Parse(c.Proxy.String)
		if err != nil {
			return fmt.Errorf("invalid proxy %q: %w", c.Proxy.String, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("proxy %q: unsupported scheme %q", c.Proxy.String, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("proxy %q has no host", c.Proxy.String)
		}
	}
	return nil
}
