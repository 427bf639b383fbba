package main

import (
	"fmt"
	"os"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/cli"
)

// apiserver is the fixed-purpose entry point for container images; it is
// equivalent to `intelctl serve`.
func main() {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(append([]string{"serve"}, os.Args[1:]...))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
