package driverlib

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
)

// Browser is a WebDriver backend.
type Browser int

// The supported backends.
const (
	Chrome Browser = iota
	Firefox
	InternetExplorer
)

// ParseBrowser selects a backend by name, ignoring case. Unknown names select
// Chrome.
func ParseBrowser(name string) Browser {
	switch strings.ToLower(name) {
	case "firefox":
		return Firefox
	case "ie", "internet explorer":
		return InternetExplorer
	}
	return Chrome
}

func (b Browser) String() string {
	switch b {
	case Firefox:
		return "firefox"
	case InternetExplorer:
		return "internet explorer"
	}
	return "chrome"
}

// ieOptionsKey is the capability key of the IEDriverServer options.
const ieOptionsKey = "se:ieOptions"

// CapabilityOptions tune the capabilities requested for a backend.
type CapabilityOptions struct {
	Headless bool
	// BrowserPath is the browser binary; empty uses the driver's default.
	BrowserPath string
	// Proxy is an http, https or socks5 URL.
	Proxy string
}

// Capabilities returns the session capabilities for b. Certificate errors
// are always ignored.
func (b Browser) Capabilities(opts CapabilityOptions) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{
		"browserName":         b.String(),
		"acceptInsecureCerts": true,
	}
	switch b {
	case Chrome:
		c := chrome.Capabilities{
			Path: opts.BrowserPath,
			Args: []string{
				"--ignore-ssl-errors=yes",
				"--ignore-certificate-errors",
				"--start-maximized",
			},
			W3C: true,
		}
		if opts.Headless {
			c.Args = append(c.Args, "--headless")
		}
		caps.AddChrome(c)
	case Firefox:
		f := firefox.Capabilities{Binary: opts.BrowserPath}
		if opts.Headless {
			f.Args = append(f.Args, "-headless")
		}
		caps.AddFirefox(f)
	case InternetExplorer:
		// IE has no headless mode and always uses the installed binary.
		caps[ieOptionsKey] = map[string]interface{}{
			"ignoreProtectedModeSettings": true,
		}
	}
	if opts.Proxy != "" {
		p, err := proxyFromURL(opts.Proxy)
		if err != nil {
			return nil, err
		}
		caps.AddProxy(p)
	}
	return caps, nil
}

// proxyFromURL builds a manual proxy setting from an http, https or socks5
// URL.
func proxyFromURL(raw string) (selenium.Proxy, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return selenium.Proxy{}, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	if u.Host == "" {
		return selenium.Proxy{}, fmt.Errorf("proxy %q has no host", raw)
	}
	p := selenium.Proxy{Type: selenium.Manual}
	switch u.Scheme {
	case "http", "https":
		p.HTTP = u.Host
		p.SSL = u.Host
	case "socks5":
		p.SOCKS = u.Host
		p.SOCKSVersion = 5
	default:
		return selenium.Proxy{}, fmt.Errorf("proxy %q: unsupported scheme %q", raw, u.Scheme)
	}
	return p, nil
}
