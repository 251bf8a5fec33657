package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adriangreen/tasklog/internal/config"
	"github.com/adriangreen/tasklog/internal/logger"
	"github.com/adriangreen/tasklog/internal/store"
	"github.com/adriangreen/tasklog/internal/tasklog"
	"github.com/spf13/cobra"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		importDate string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-normalize a raw task log file whenever it changes",
		Long: `Prints the normalized form of file, then again after every change.
With --import the normalized log is also stored under the given date on every
change. The config file is reloaded when it changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle interrupt signals for clean shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.FromContext(ctx)
			path := args[0]

			var svc *store.Service
			if importDate != "" {
				if err := store.ValidateDate(importDate); err != nil {
					return err
				}
				s, st, err := a.openService()
				if err != nil {
					return err
				}
				defer st.Close()
				svc = s

				if b, ok := st.(*store.BadgerStore); ok && a.cfg.Watch.GCInterval() > 0 {
					go b.RunGC(ctx, a.cfg.Watch.GCInterval())
				}
			}

			watcher, err := config.NewWatcher(ctx, path)
			if err != nil {
				return err
			}
			if err := watcher.Start(a.cfg.Watch.Debounce()); err != nil {
				return err
			}
			defer watcher.Stop()

			if err := a.manager.StartWatcher(ctx); err != nil {
				log.Debug("config watcher not started", "err", err)
			}
			defer a.manager.StopWatcher()

			w := &fileWatch{app: a, cmd: cmd, svc: svc, date: importDate, path: path, asJSON: asJSON}
			w.refresh(ctx)

			for {
				select {
				case <-ctx.Done():
					return nil

				case _, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					w.refresh(ctx)

				case err, ok := <-watcher.Errors():
					if ok {
						log.Warn("file watcher error", "path", path, "err", err)
					}

				case <-a.manager.ReloadEvents():
					if err := a.refresh(cmd); err != nil {
						log.Error("ignoring reloaded config", "err", err)
						continue
					}
					logger.SetLevel(a.cfg.LogLevel)
				}
			}
		},
	}

	cmd.Flags().StringVar(&importDate, "import", "", "also store each version under this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print normalized JSON instead of a checklist")
	return cmd
}

// fileWatch re-reads and renders one watched file
type fileWatch struct {
	app    *app
	cmd    *cobra.Command
	svc    *store.Service
	date   string
	path   string
	asJSON bool
}

// refresh never fails the watch; a half-written file is reported and the
// next change is awaited
func (w *fileWatch) refresh(ctx context.Context) {
	log := logger.FromContext(ctx)
	out := w.cmd.OutOrStdout()

	data, err := os.ReadFile(w.path)
	if err != nil {
		log.Warn("failed to read watched file", "path", w.path, "err", err)
		return
	}

	var (
		rec    *tasklog.LogRecord
		report tasklog.Report
	)
	if w.svc != nil {
		rec, report, err = w.svc.Import(ctx, w.date, data)
	} else {
		var raw *tasklog.RawRecord
		raw, err = tasklog.ParseRecord("", data)
		if err == nil {
			rec = tasklog.NewNormalizer().NormalizeRecord(raw)
			report = tasklog.Validate(raw.Tasks, rec.Tasks)
		}
	}
	if err != nil {
		log.Warn("failed to normalize watched file", "path", w.path, "err", err)
		return
	}

	if w.asJSON {
		if err := writeJSON(out, rec, true); err != nil {
			log.Error("failed to write output", "err", err)
		}
		return
	}

	s := newStyles(out, w.app.cfg.Theme)
	renderRecord(out, s, rec)
	renderReport(out, s, report)
	fmt.Fprintln(out)
}
