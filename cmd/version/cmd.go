package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with ldflags.
var Version = "v0.1.0-dev"

var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the current version of the SDK daemon",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("%s\n", Version)
	},
}
