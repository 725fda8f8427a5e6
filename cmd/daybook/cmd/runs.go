package cmd

import (
	"fmt"

	"github.com/rustyeddy/daybook/journal"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query runs recorded in a SQLite journal",
	Long: `List and display runs exported to a SQLite journal.

Examples:
  daybook runs list -d runs.db
  daybook runs show <run-id> -d runs.db --org`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded run ids",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a recorded run's summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsDBPath string
	runsOrg    bool
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "./daybook.sqlite", "path to SQLite journal DB")
	runsShowCmd.Flags().BoolVar(&runsOrg, "org", false, "print as an Org-mode block")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath, "")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ids, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	for _, runID := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), runID)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath, "")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	s, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	if !runsOrg {
		s.Print(cmd.OutOrStdout())
		return nil
	}
	out, err := s.Org()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
