package cli

import (
	"bytes"

	"github.com/adriangreen/tasklog/internal/logger"
	"github.com/adriangreen/tasklog/internal/tasklog"
	"github.com/spf13/cobra"
)

func newNormalizeCommand(a *app) *cobra.Command {
	var (
		compact bool
		report  bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Print the normalized form of a raw task log",
		Long: `Reads a raw task log (a bare task array or a {date, tasks, memo} record)
from a file or stdin and prints it normalized. Nothing is stored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}

			raw, err := tasklog.ParseRecord("", data)
			if err != nil {
				return err
			}
			rec := tasklog.NewNormalizer().NormalizeRecord(raw)
			result := tasklog.Validate(raw.Tasks, rec.Tasks)

			log := logger.FromContext(cmd.Context())
			if result.Malformed > 0 {
				log.Warn("dropped malformed entries", "count", result.Malformed)
			}
			if report {
				renderReport(cmd.ErrOrStderr(), newStyles(cmd.ErrOrStderr(), a.cfg.Theme), result)
			}

			// A bare array comes back as a bare array
			if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
				return writeJSON(cmd.OutOrStdout(), rec.Tasks, compact)
			}
			return writeJSON(cmd.OutOrStdout(), rec, compact)
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print JSON on a single line")
	cmd.Flags().BoolVar(&report, "report", false, "print validation warnings to stderr")
	return cmd
}
