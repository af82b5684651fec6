// Command sysplan plans entity-component system queries declared in CUE.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sysplan/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sysplan: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
