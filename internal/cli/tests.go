package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List available tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			tests, err := client.ListTests(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tQUESTIONS\tDESCRIPTION")
			for _, t := range tests {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", t.ID, t.Title, t.QuestionsCount, t.Description)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(newTestsShowCmd())
	return cmd
}

func newTestsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a test with its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("test id must be a number: %q", args[0])
			}
			client, _, _, err := buildClient()
			if err != nil {
				return err
			}
			test, err := client.GetTest(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (#%d)\n", test.Title, test.ID)
			if test.Description != "" {
				fmt.Println(test.Description)
			}
			for i, q := range test.Questions {
				fmt.Printf("\n%d. %s\n", i+1, q.Text)
				for j, c := range q.Choices {
					fmt.Printf("   %d) %s\n", j+1, c.Text)
				}
			}
			return nil
		},
	}
}
