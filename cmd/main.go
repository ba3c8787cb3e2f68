package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/doublespending/mev-boost-aa-account-sdk/cmd/resolve"
	"github.com/doublespending/mev-boost-aa-account-sdk/cmd/run"
	"github.com/doublespending/mev-boost-aa-account-sdk/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:   "",
	Short: "Utility commands for the boost account SDK",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Err(err).Msg("failed to run command")
		os.Exit(1)
	}
}

func main() {
	rootCmd.AddCommand(version.Cmd)
	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(run.Cmd)

	Execute()
}
