package list

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"binfetch/pkg/env"
	"binfetch/pkg/receipt"
)

func GetCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed artifacts",
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

			var receipts []receipt.Receipt
			if all {
				receipts, err = store.List()
			} else {
				receipts, err = store.Latest()
			}
			if err != nil {
				return err
			}
			if len(receipts) == 0 {
				fmt.Println("no artifacts installed")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIGEST\tPATH\tINSTALLED")
			for _, r := range receipts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					r.Name, shortDigest(r.Digest), r.InstallPath,
					r.InstalledAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show the full install history, not just the latest per artifact")
	return cmd
}

func shortDigest(digest string) string {
	if len(digest) > 19 {
		return digest[:19] + "…"
	}
	return digest
}
