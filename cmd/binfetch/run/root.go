package run

import (
	"github.com/spf13/cobra"

	applypkg "binfetch/pkg/apply"
)

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run an artifact's post-install command",
		Long: `Run only the post_install command of a manifest entry, for
artifacts that are already installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, err := cmd.Flags().GetString("manifest")
			if err != nil {
				return err
			}
			runner, err := applypkg.NewRunner(manifestPath, false)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.PostInstall(cmd.Context(), args[0])
		},
	}
}
