// sidepost CLI - serialize record graphs into sideposting documents and run
// the mock server that accepts them.
package main

import "github.com/getmockd/sidepost/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
