package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
	"gopkg.in/guregu/null.v3"

	"github.com/wanmail/driverlib"
	"github.com/wanmail/driverlib/config"
	"github.com/wanmail/driverlib/flow"
	"github.com/wanmail/driverlib/internal/download"
	"github.com/wanmail/driverlib/report"
)

// errFlowsFailed is returned by run when at least one flow failed.
var errFlowsFailed = errors.New("flows failed")

// Replaced in tests.
var (
	appFs     = afero.NewOsFs()
	newDriver = driverlib.New
)

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "driverlib",
		Usage:   "Run browser flows and fetch WebDriver servers",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "verbosity",
				Usage: "Verbosity of the driver server and download diagnostics",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			// glog reads its settings from the standard flag set.
			if err := flag.CommandLine.Parse(nil); err != nil {
				return err
			}
			flag.Set("logtostderr", "true")
			flag.Set("v", strconv.Itoa(c.Int("verbosity")))
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			fetchCommand,
			versionCommand,
		},
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run flow files and write a report",
	ArgsUsage: "FLOW...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "JSON config file",
			EnvVars: []string{"DRIVERLIB_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "browser",
			Aliases: []string{"b"},
			Usage:   "Browser to run (chrome, firefox, ie); overrides the config",
		},
		&cli.StringFlag{
			Name:  "executor",
			Usage: "URL of a running WebDriver server",
		},
		&cli.StringFlag{
			Name:  "driver-path",
			Usage: "WebDriver server binary to start when no executor is given",
		},
	},
	Action: runFlows,
}

func runFlows(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("run needs at least one flow file")
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	cfg, err := config.Load(appFs, c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("executor") {
		cfg.Executor = null.StringFrom(c.String("executor"))
	}
	if c.IsSet("driver-path") {
		cfg.DriverPath = null.StringFrom(c.String("driver-path"))
	}

	// Parse everything before a browser is started.
	var flows []*flow.Flow
	for _, p := range c.Args().Slice() {
		f, err := flow.ParseFile(appFs, p)
		if err != nil {
			return err
		}
		flows = append(flows, f)
	}

	d, err := newDriver(ctx, c.String("browser"), driverlib.WithConfig(cfg), driverlib.WithFs(appFs))
	if err != nil {
		return err
	}
	defer d.Teardown()

	rep, err := report.New(appFs, cfg.ReportDir.String)
	if err != nil {
		return err
	}
	r := &flow.Runner{Driver: d, Report: rep}

	out := c.App.Writer
	for _, f := range flows {
		tc := r.Run(ctx, f)
		res := tc.Result()
		attr := color.FgGreen
		if res != report.Pass {
			attr = color.FgRed
		}
		color.New(attr, color.Bold).Fprint(out, res.String())
		fmt.Fprintf(out, " %s: %s\n", f.Name, tc.ActualOutcome())
	}
	if err := rep.End(); err != nil {
		return err
	}

	passed, failed, _ := rep.Counts()
	fmt.Fprintf(out, "%d passed, %d failed. Report: %s\n", passed, failed, rep.Path())
	if failed > 0 {
		return fmt.Errorf("%d of %d %w", failed, len(flows), errFlowsFailed)
	}
	return nil
}

var fetchCommand = &cli.Command{
	Name:  "fetch",
	Usage: "Download ChromeDriver and geckodriver",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Directory to download into",
			Value: "vendor",
		},
		&cli.StringFlag{
			Name:  "chrome-build",
			Usage: "Chromium snapshot build; empty for the latest",
		},
		&cli.StringFlag{
			Name:  "gecko-min",
			Usage: "Oldest acceptable geckodriver version",
		},
		&cli.BoolFlag{
			Name:  "skip-chrome",
			Usage: "Do not download ChromeDriver",
		},
		&cli.BoolFlag{
			Name:  "skip-gecko",
			Usage: "Do not download geckodriver",
		},
	},
	Action: fetchDrivers,
}

func fetchDrivers(c *cli.Context) error {
	ctx := c.Context
	var files []download.File
	if !c.Bool("skip-chrome") {
		f, err := download.ChromeDriverFile(ctx, c.String("chrome-build"))
		if err != nil {
			glog.Errorf("Unable to find ChromeDriver: %v", err)
			return err
		}
		files = append(files, f)
	}
	if !c.Bool("skip-gecko") {
		f, err := download.GeckoDriverFile(ctx, nil, c.String("gecko-min"))
		if err != nil {
			glog.Errorf("Unable to find the latest geckodriver: %v", err)
			return err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil
	}

	dir := c.String("dir")
	if err := download.DownloadAll(ctx, dir, files...); err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(c.App.Writer, "Fetched %s\n", f.Path(dir))
	}
	return nil
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print the version",
	Action: func(c *cli.Context) error {
		fmt.Fprintf(c.App.Writer, "driverlib %s\n", c.App.Version)
		return nil
	},
}
