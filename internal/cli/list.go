package cli

import (
	"fmt"

	"github.com/adriangreen/tasklog/internal/tasklog"
	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored log dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			dates, err := svc.Dates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := newStyles(out, a.cfg.Theme)
			if len(dates) == 0 {
				fmt.Fprintln(out, s.muted.Render("no logs stored"))
				return nil
			}

			for _, date := range dates {
				if !long {
					fmt.Fprintln(out, date)
					continue
				}

				rec, err := svc.Load(cmd.Context(), date)
				if err != nil {
					fmt.Fprintf(out, "%s  %s\n", date, s.err.Render(err.Error()))
					continue
				}
				done := 0
				for _, task := range rec.Tasks {
					if task.Status == tasklog.StatusCompleted {
						done++
					}
				}
				fmt.Fprintf(out, "%s  %s\n", date, s.muted.Render(fmt.Sprintf("%d/%d done", done, len(rec.Tasks))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show task counts per log")
	return cmd
}
