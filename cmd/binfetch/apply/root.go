package apply

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	applypkg "binfetch/pkg/apply"
)

func GetCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "apply [names...]",
		Short: "Install manifest artifacts",
		Long: `Install artifacts from the manifest, sequentially.

Without names every artifact is installed. Digests pinned in the
lockfile are enforced during transfer; every verified install updates
the lockfile and is recorded in the receipt database.`,
		Example: `  binfetch apply
  binfetch apply minikube kvm2-driver
  binfetch apply --pick`,
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

			names := args
			if pick && len(names) == 0 {
				names, err = pickNames(runner.Names())
				if err != nil {
					return err
				}
			}
			return runner.InstallAll(cmd.Context(), names)
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "Select artifacts interactively")
	return cmd
}

func pickNames(all []string) ([]string, error) {
	if len(all) == 0 {
		return nil, fmt.Errorf("manifest has no artifacts")
	}
	idxs, err := fuzzyfinder.FindMulti(all, func(i int) string { return all[i] })
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(idxs))
	for _, i := range idxs {
		names = append(names, all[i])
	}
	return names, nil
}
