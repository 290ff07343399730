package verify

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"binfetch/pkg/artifact"
	"binfetch/pkg/env"
	"binfetch/pkg/receipt"
)

func GetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-verify installed artifacts against their receipts",
		Long: `Recompute the digest of every installed artifact and compare it to
the digest recorded at install time. Reports missing files and content
drift.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := env.ReceiptsDBPath()
			if err != nil {
				return err
			}
			store, err := receipt.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			receipts, err := store.Latest()
			if err != nil {
				return err
			}
			if len(receipts) == 0 {
				fmt.Println("no artifacts installed")
				return nil
			}

			bad := 0
			for _, r := range receipts {
				switch status := check(r); status {
				case "ok":
					fmt.Printf("ok       %s (%s)\n", r.Name, r.InstallPath)
				default:
					bad++
					fmt.Printf("%-8s %s (%s)\n", status, r.Name, r.InstallPath)
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d artifacts failed verification", bad, len(receipts))
			}
			return nil
		},
	}
}

func check(r receipt.Receipt) string {
	if _, err := os.Stat(r.InstallPath); os.IsNotExist(err) {
		return "missing"
	}
	algo, expected := artifact.SplitDigest(r.Digest)
	actual, err := artifact.DigestFile(r.InstallPath, artifact.Algorithm(algo))
	if err != nil {
		return "error"
	}
	if actual != expected {
		return "modified"
	}
	return "ok"
}
