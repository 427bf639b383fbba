package main

import (
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	cli.Execute()
}
