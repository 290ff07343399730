package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"binfetch/cmd/binfetch/apply"
	"binfetch/cmd/binfetch/install"
	"binfetch/cmd/binfetch/list"
	"binfetch/cmd/binfetch/pin"
	"binfetch/cmd/binfetch/run"
	"binfetch/cmd/binfetch/verify"
	"binfetch/pkg/env"
	"binfetch/pkg/version"
)

func main() {
	var verbose bool

	cmd := &cobra.Command{
		Use:     "binfetch",
		Short:   "binfetch - checksum-verified binary artifact installer",
		Version: version.GetBuildID(),
		PersistentPreRun: func(c *cobra.Command, args []string) {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("manifest", env.DefaultManifestPath(), "Path to the artifact manifest")

	cmd.AddCommand(
		install.GetCommand(),
		apply.GetCommand(),
		pin.GetCommand(),
		list.GetCommand(),
		verify.GetCommand(),
		run.GetCommand(),
	)

	if err := cmd.Execute(); err != nil {
		slog.Error("error", "err", err)
		os.Exit(1)
	}
}
