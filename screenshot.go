package driverlib

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Screenshot saves a PNG of the page as <name>.png in ScreenshotDir, or in
// ErrorScreenshotDir when toErrorFolder is set, and returns its path. An
// existing file is left untouched. The name must not contain a path
// separator. After a capture it waits SettleDelay.
func (d *Driver) Screenshot(ctx context.Context, name string, toErrorFolder bool) (string, error) {
	if err := d.check("Screenshot"); err != nil {
		return "", err
	}
	if !validName(name) {
		d.log.Write("Invalid screenshot name: "+name, "Screenshot", "")
		return "", opError("Screenshot", nil, fmt.Errorf("invalid screenshot name %q", name))
	}
	d.log.Enter("Screenshot")
	dir := d.cfg.ScreenshotDir.String
	if toErrorFolder {
		dir = d.cfg.ErrorScreenshotDir.String
	}
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		d.log.Error("Unable to create screenshot folder: "+dir, "Screenshot", err)
		return "", opError("Screenshot", nil, fmt.Errorf("creating %q: %w", dir, err))
	}

	path := filepath.Join(dir, name+".png")
	exists, err := afero.Exists(d.fs, path)
	if err != nil {
		return "", opError("Screenshot", nil, err)
	}
	if exists {
		d.log.Leave("Screenshot")
		return path, nil
	}

	data, err := d.wd.Screenshot()
	if err != nil {
		d.log.Error("Unable to capture screenshot: "+name, "Screenshot", err)
		return "", opError("Screenshot", nil, err)
	}
	if err := afero.WriteFile(d.fs, path, data, 0o644); err != nil {
		d.log.Error("Unable to save screenshot: "+path, "Screenshot", err)
		return "", opError("Screenshot", nil, err)
	}
	d.log.Write("Screenshot captured: "+name+".png", "", "")
	if err := sleep(ctx, d.cfg.SettleDelay.Duration); err != nil {
		return path, err
	}
	d.log.Leave("Screenshot")
	return path, nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
