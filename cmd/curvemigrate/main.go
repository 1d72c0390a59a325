// Command curvemigrate imports legacy interest-rate curve configuration and
// migrates it to curve construction configurations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/curvemigrate/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// stdout carries the formatted result; stderr gets the exit reason.
		fmt.Fprintln(os.Stderr, "curvemigrate:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
