// Command driverlib runs YAML flows in a browser, writes an HTML report of
// their outcome and fetches the WebDriver servers it needs.
//
// Examples:
//
//	driverlib fetch --dir vendor
//	DRIVERLIB_DRIVER_PATH=vendor/chromedriver driverlib run flows/*.yaml
//	driverlib run --config driverlib.json --browser firefox search.yaml
package main

import (
	"fmt"
	"os"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
