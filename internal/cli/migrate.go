package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite every stored log in normalized form",
		Long: `Loads every stored log, normalizes it and writes it back. Logs that
cannot be decoded are reported and left as they are. With --dry-run nothing
is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := svc.Migrate(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := newStyles(out, a.cfg.Theme)
			for _, result := range summary.Results {
				switch {
				case result.Err != nil:
					fmt.Fprintf(out, "%s  %s %v\n", result.Date, s.err.Render("skipped"), result.Err)
				case result.Report.Dropped() > 0:
					fmt.Fprintf(out, "%s  %s dropped %d\n", result.Date, s.warning.Render("migrated"), result.Report.Dropped())
				default:
					fmt.Fprintf(out, "%s  %s\n", result.Date, s.success.Render("migrated"))
				}
			}

			verb := "migrated"
			if summary.DryRun {
				verb = "would migrate"
			}
			fmt.Fprintln(out, s.title.Render(fmt.Sprintf("%s %d logs, skipped %d, dropped %d entries",
				verb, summary.Migrated, summary.Skipped, summary.Dropped())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return cmd
}
