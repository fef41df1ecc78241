package driverlib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"time"

	"github.com/golang/glog"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service) error

// Output specifies that the WebDriver service should log to the provided
// writer.
func Output(w io.Writer) ServiceOption {
	return func(s *Service) error {
		s.output = w
		return nil
	}
}

// ReadyTimeout bounds how long StartService waits for the server to answer.
func ReadyTimeout(d time.Duration) ServiceOption {
	return func(s *Service) error {
		if d <= 0 {
			return fmt.Errorf("ready timeout must be positive, got %s", d)
		}
		s.readyTimeout = d
		return nil
	}
}

const defaultReadyTimeout = 30 * time.Second

var (
	newExecCommand = exec.Command
	// statusPollInterval is the delay between readiness probes.
	statusPollInterval = time.Second
)

// Service controls a locally-running WebDriver server subprocess.
type Service struct {
	browser         Browser
	port            int
	addr            string
	cmd             *exec.Cmd
	shutdownURLPath string
	readyTimeout    time.Duration

	output io.Writer
}

// StartService starts the driver server for browser from path and waits until
// it answers on its status endpoint. A port of 0 picks an unused one.
func StartService(ctx context.Context, browser Browser, path string, port int, opts ...ServiceOption) (*Service, error) {
	if port == 0 {
		p, err := pickUnusedPort()
		if err != nil {
			return nil, fmt.Errorf("picking a port: %w", err)
		}
		port = p
	}

	var (
		args      []string
		urlPrefix string
		shutdown  string
	)
	switch browser {
	case Chrome:
		args = []string{"--port=" + strconv.Itoa(port), "--url-base=wd/hub"}
		urlPrefix = "/wd/hub"
		shutdown = "/shutdown"
	case Firefox:
		args = []string{"--port", strconv.Itoa(port)}
	case InternetExplorer:
		args = []string{"/port=" + strconv.Itoa(port)}
	default:
		return nil, fmt.Errorf("no driver server for browser %d", browser)
	}

	s, err := newService(newExecCommand(path, args...), urlPrefix, port, opts...)
	if err != nil {
		return nil, err
	}
	s.browser = browser
	s.shutdownURLPath = shutdown
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newService(cmd *exec.Cmd, urlPrefix string, port int, opts ...ServiceOption) (*Service, error) {
	s := &Service{
		port:         port,
		addr:         fmt.Sprintf("http://localhost:%d%s", port, urlPrefix),
		readyTimeout: defaultReadyTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	cmd.Stderr = s.output
	cmd.Stdout = s.output
	s.cmd = cmd
	return s, nil
}

// Addr returns the WebDriver URL of the service.
func (s *Service) Addr() string { return s.addr }

// Port returns the port the service listens on.
func (s *Service) Port() int { return s.port }

func (s *Service) start(ctx context.Context) error {
	glog.V(1).Infof("starting %s driver: %v", s.browser, s.cmd.Args)
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.cmd.Path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.readyTimeout)
	defer cancel()
	t := time.NewTicker(statusPollInterval)
	defer t.Stop()
	for {
		if s.ready(ctx) {
			glog.V(1).Infof("%s driver ready at %s", s.browser, s.addr)
			return nil
		}
		select {
		case <-ctx.Done():
			s.kill()
			return fmt.Errorf("server did not respond on port %d: %w", s.port, ctx.Err())
		case <-t.C:
		}
	}
}

func (s *Service) ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.addr+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	switch resp.StatusCode {
	// Old Selenium servers answer Forbidden and BadRequest. The drivers answer
	// OK.
	case http.StatusForbidden, http.StatusBadRequest, http.StatusOK:
		return true
	}
	return false
}

func (s *Service) kill() {
	if err := s.cmd.Process.Kill(); err != nil {
		glog.Warningf("killing %s: %v", s.cmd.Path, err)
	}
	s.cmd.Wait()
}

// Stop shuts down the WebDriver service.
func (s *Service) Stop() error {
	if s.shutdownURLPath == "" {
		if err := s.cmd.Process.Kill(); err != nil {
			return err
		}
	} else {
		resp, err := http.Get(s.addr + s.shutdownURLPath)
		if err != nil {
			return err
		}
		resp.Body.Close()
	}
	var exitErr *exec.ExitError
	if err := s.cmd.Wait(); err != nil && !(errors.As(err, &exitErr) && err.Error() == "signal: killed") {
		return err
	}
	return nil
}

func pickUnusedPort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
