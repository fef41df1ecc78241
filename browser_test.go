package driverlib

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"
)

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		in   string
		want Browser
	}{
		{"chrome", Chrome},
		{"CHROME", Chrome},
		{"firefox", Firefox},
		{"FireFox", Firefox},
		{"ie", InternetExplorer},
		{"IE", InternetExplorer},
		{"Internet Explorer", InternetExplorer},
		{"", Chrome},
		{"safari", Chrome},
		{" firefox", Chrome},
	}
	for _, test := range tests {
		if got := ParseBrowser(test.in); got != test.want {
			t.Errorf("ParseBrowser(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestChromeCapabilities(t *testing.T) {
	for _, headless := range []bool{true, false} {
		caps, err := Chrome.Capabilities(CapabilityOptions{Headless: headless, BrowserPath: "/opt/chrome"})
		if err != nil {
			t.Fatalf("Capabilities() returned error: %v", err)
		}
		if caps["acceptInsecureCerts"] != true {
			t.Errorf("acceptInsecureCerts = %v, want true", caps["acceptInsecureCerts"])
		}
		c := caps[chrome.CapabilitiesKey].(chrome.Capabilities)
		want := []string{"--ignore-ssl-errors=yes", "--ignore-certificate-errors", "--start-maximized"}
		if headless {
			want = append(want, "--headless")
		}
		if diff := cmp.Diff(want, c.Args); diff != "" {
			t.Errorf("headless=%t: chrome args mismatch (-want +got):\n%s", headless, diff)
		}
		if c.Path != "/opt/chrome" {
			t.Errorf("chrome binary = %q, want /opt/chrome", c.Path)
		}
	}
}

func TestFirefoxCapabilities(t *testing.T) {
	caps, err := Firefox.Capabilities(CapabilityOptions{})
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	if caps["browserName"] != "firefox" || caps["acceptInsecureCerts"] != true {
		t.Errorf("caps = %v, want firefox with acceptInsecureCerts", caps)
	}
	if f := caps[firefox.CapabilitiesKey].(firefox.Capabilities); len(f.Args) != 0 {
		t.Errorf("firefox args = %v, want none when not headless", f.Args)
	}
}

func TestInternetExplorerCapabilities(t *testing.T) {
	caps, err := InternetExplorer.Capabilities(CapabilityOptions{Headless: true})
	if err != nil {
		t.Fatalf("Capabilities() returned error: %v", err)
	}
	want := map[string]interface{}{"ignoreProtectedModeSettings": true}
	if diff := cmp.Diff(want, caps[ieOptionsKey]); diff != "" {
		t.Errorf("ie options mismatch (-want +got):\n%s", diff)
	}
	if caps["browserName"] != "internet explorer" {
		t.Errorf("browserName = %v, want internet explorer", caps["browserName"])
	}
}

func TestProxyCapabilities(t *testing.T) {
	tests := []struct {
		in   string
		want selenium.Proxy
	}{
		{"http://127.0.0.1:3128", selenium.Proxy{Type: selenium.Manual, HTTP: "127.0.0.1:3128", SSL: "127.0.0.1:3128"}},
		{"socks5://localhost:1080", selenium.Proxy{Type: selenium.Manual, SOCKS: "localhost:1080", SOCKSVersion: 5}},
	}
	for _, test := range tests {
		caps, err := Chrome.Capabilities(CapabilityOptions{Proxy: test.in})
		if err != nil {
			t.Fatalf("Capabilities(proxy %q) returned error: %v", test.in, err)
		}
		if diff := cmp.Diff(test.want, caps["proxy"]); diff != "" {
			t.Errorf("proxy %q mismatch (-want +got):\n%s", test.in, diff)
		}
	}

	for _, bad := range []string{"ftp://host:21", "http://", "::"} {
		if _, err := Chrome.Capabilities(CapabilityOptions{Proxy: bad}); err == nil {
			t.Errorf("Capabilities(proxy %q) returned nil error", bad)
		}
	}
}
