package pin

import (
	"github.com/spf13/cobra"

	applypkg "binfetch/pkg/apply"
)

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pin [names...]",
		Short: "Verify artifacts and pin their digests in the lockfile",
		Long: `Download and checksum-verify artifacts without installing them,
recording the observed digests in the lockfile next to the manifest.
Later applies enforce those digests during transfer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath, err := cmd.Flags().GetString("manifest")
			if err != nil {
				return err
			}
			runner, err := applypkg.NewRunner(manifestPath, true)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Pin(cmd.Context(), args)
		},
	}
}
