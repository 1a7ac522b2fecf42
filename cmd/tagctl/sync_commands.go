package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jdholdren/tagcast/internal/sqlite"
	tcsync "github.com/jdholdren/tagcast/internal/sync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var force, asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize every podcast of the catalog once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dbx, repo, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer dbx.Close()

			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			runner, err := cfg.Runner(repo)
			if err != nil {
				return err
			}

			report, err := runner.Run(cmd.Context(), cat, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printRunReport(out, report)
			}

			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d of %d podcasts failed to sync", n, len(report.Outcomes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Refetch and rewrite feeds even when unchanged")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run report as JSON")

	return cmd
}

func printRunReport(out io.Writer, report tcsync.RunReport) {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		status := o.Status
		if o.Err != nil {
			status = fmt.Sprintf("%s: %v", o.Status, o.Err)
		}
		rows = append(rows, []string{
			o.Feed,
			status,
			strconv.Itoa(o.Report.Created),
			strconv.Itoa(o.Report.Replaced),
			strconv.Itoa(o.Report.Skipped),
			strconv.Itoa(o.Report.Failed),
			strconv.Itoa(o.Report.Assigned),
		})
	}

	fmt.Fprintf(out, "Run %s\n", report.RunID)
	fmt.Fprintln(out, renderTable(
		[]string{"Feed", "Status", "Created", "Replaced", "Skipped", "Failed", "Tags"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	printCleanupReport(out, report.Cleanup)
}

func printCleanupReport(out io.Writer, c sqlite.CleanupReport) {
	fmt.Fprintf(out, "Removed: %d podcasts, %d episodes, %d tag assignments, %d tags\n",
		c.Podcasts, c.Episodes, c.Assignments, c.Tags)
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove podcasts the catalog no longer lists and unused tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dbx, repo, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer dbx.Close()

			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}
			report, err := repo.Cleanup(cmd.Context(), cat.Feeds())
			if err != nil {
				return err
			}
			printCleanupReport(cmd.OutOrStdout(), report)

			return nil
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all synced data, pass --yes to confirm")
			}
			_, dbx, repo, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer dbx.Close()

			if err := repo.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database reset")

			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}
