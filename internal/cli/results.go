package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List your saved attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			if !client.IsAuthenticated() {
				fmt.Println("Log in to see saved results; guest attempts are not persisted.")
				return nil
			}
			attempts, err := client.MyAttempts(cmd.Context())
			if err != nil {
				return err
			}
			if len(attempts) == 0 {
				fmt.Println("No attempts yet.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEST\tSCORE\tPERCENT\tFINISHED")
			for _, a := range attempts {
				fmt.Fprintf(w, "%d\t%s\t%d/%d\t%.0f%%\t%s\n",
					a.ID, a.TestTitle, a.Score, a.Total, a.Percent,
					a.FinishedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
