package main

import (
	"fmt"
	"os"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/interfaces/cli"
)

// worker consumes candidate-extracted events; equivalent to
// `intelctl worker`.
func main() {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(append([]string{"worker"}, os.Args[1:]...))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
