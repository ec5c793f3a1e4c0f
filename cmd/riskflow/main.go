// Command riskflow runs Monte-Carlo simulations of insurance risk models.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/riskflow/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
