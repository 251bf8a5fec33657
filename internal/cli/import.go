package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <date> [file|-]",
		Short: "Normalize a raw task log and store it",
		Long: `Normalizes a raw task log and stores it under date (YYYY-MM-DD).
Pass an empty date ("") to use the date inside the payload.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, report, err := svc.Import(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}

			s := newStyles(cmd.OutOrStdout(), a.cfg.Theme)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d tasks\n", s.success.Render("imported"), rec.Date, len(rec.Tasks))
			renderReport(cmd.OutOrStdout(), s, report)
			return nil
		},
	}
}
