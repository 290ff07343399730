package install

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"binfetch/pkg/artifact"
	"binfetch/pkg/env"
	"binfetch/pkg/receipt"
)

func GetCommand() *cobra.Command {
	var (
		checksumURL string
		dest        string
		mode        string
		algo        string
		sigURL      string
		keyring     string
	)

	cmd := &cobra.Command{
		Use:   "install <url>",
		Short: "Install a single artifact by URL",
		Example: `  binfetch install https://example.com/releases/v1.2.0/minikube-linux-amd64 \
    --dest /usr/local/bin/minikube
  binfetch install https://example.com/tool.bin --checksum-url https://example.com/SHA256SUMS`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := artifact.Spec{
				SourceURL:    args[0],
				ChecksumURL:  checksumURL,
				Algorithm:    artifact.Algorithm(algo),
				InstallPath:  env.ExpandPath(dest),
				SignatureURL: sigURL,
				Keyring:      env.ExpandPath(keyring),
			}
			if spec.ChecksumURL == "" {
				spec.ChecksumURL = spec.SourceURL + ".sha256"
			}
			if spec.InstallPath == "" {
				binDir, err := env.GetBinDir()
				if err != nil {
					return err
				}
				spec.InstallPath = filepath.Join(binDir, spec.Filename())
			}
			if mode != "" {
				parsed, err := strconv.ParseUint(mode, 8, 32)
				if err != nil {
					return fmt.Errorf("invalid mode %q: %w", mode, err)
				}
				spec.Mode = fs.FileMode(parsed)
			}

			if err := os.MkdirAll(filepath.Dir(spec.InstallPath), 0o755); err != nil {
				return err
			}

			installer := artifact.New(nil)
			installer.Progress = true
			res, err := installer.Install(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Printf("installed %s (%s)\n", res.Path, res.Digest)

			return recordReceipt(spec, res)
		},
	}

	cmd.Flags().StringVar(&checksumURL, "checksum-url", "", "Checksum sidecar URL (default <url>.sha256)")
	cmd.Flags().StringVar(&dest, "dest", "", "Install path (default basename into the binfetch bin dir)")
	cmd.Flags().StringVar(&mode, "mode", "", "File mode in octal (default 0755)")
	cmd.Flags().StringVar(&algo, "algo", "", "Digest algorithm: sha256 or sha512 (default sha256)")
	cmd.Flags().StringVar(&sigURL, "sig-url", "", "Detached PGP signature URL")
	cmd.Flags().StringVar(&keyring, "keyring", "", "Armored PGP keyring file for --sig-url")
	return cmd
}

func recordReceipt(spec artifact.Spec, res artifact.Result) error {
	dbPath, err := env.ReceiptsDBPath()
	if err != nil {
		return err
	}
	store, err := receipt.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(receipt.Receipt{
		Name:        spec.Filename(),
		SourceURL:   spec.SourceURL,
		Digest:      res.Digest,
		InstallPath: res.Path,
		Mode:        res.Mode,
	})
}
