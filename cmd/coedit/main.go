// Command coedit edits a schema-validated shared state from the command line
// and serves it over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/coedit/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
