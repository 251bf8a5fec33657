package cli

import (
	"github.com/spf13/cobra"
)

func newShowCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <date>",
		Short: "Print a stored task log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := a.openService()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := svc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rec, false)
			}
			renderRecord(cmd.OutOrStdout(), newStyles(cmd.OutOrStdout(), a.cfg.Theme), rec)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized log as JSON")
	return cmd
}
