package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/adriangreen/tasklog/internal/logger"
	"github.com/adriangreen/tasklog/internal/tasklog"
	charmlog "github.com/charmbracelet/log"
)

// Service reads and writes task logs through a Store. Every log is
// normalized on its way out of storage, whatever shape it was written in.
type Service struct {
	store      Store
	normalizer *tasklog.Normalizer
	log        *charmlog.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithNormalizer replaces the default normalizer
func WithNormalizer(n *tasklog.Normalizer) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithLogger replaces the process-wide logger
func WithLogger(l *charmlog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a log service on top of st
func NewService(st Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:      st,
		normalizer: tasklog.NewNormalizer(),
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dates lists every stored log date
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	return dates, nil
}

// Load fetches the log for date and normalizes it
func (s *Service) Load(ctx context.Context, date string) (*tasklog.LogRecord, error) {
	rec, _, err := s.load(ctx, date)
	return rec, err
}

// LoadWithReport is Load plus a report of what normalization dropped
func (s *Service) LoadWithReport(ctx context.Context, date string) (*tasklog.LogRecord, tasklog.Report, error) {
	return s.load(ctx, date)
}

func (s *Service) load(ctx context.Context, date string) (*tasklog.LogRecord, tasklog.Report, error) {
	payload, err := s.store.Get(ctx, date)
	if err != nil {
		return nil, tasklog.Report{}, fmt.Errorf("failed to load log %s: %w", date, err)
	}

	raw, err := tasklog.ParseRecord(date, payload)
	if err != nil {
		return nil, tasklog.Report{}, fmt.Errorf("failed to decode log %s: %w", date, err)
	}

	rec := s.normalizer.NormalizeRecord(raw)
	report := tasklog.Validate(raw.Tasks, rec.Tasks)
	if report.Malformed > 0 {
		s.log.Debug("dropped malformed entries", "date", date, "count", report.Malformed)
	}
	return rec, report, nil
}

// Save stores an already normalized log
func (s *Service) Save(ctx context.Context, rec *tasklog.LogRecord) error {
	if err := ValidateDate(rec.Date); err != nil {
		return err
	}

	payload, err := tasklog.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, rec.Date, payload); err != nil {
		return fmt.Errorf("failed to save log %s: %w", rec.Date, err)
	}
	return nil
}

// Import normalizes a raw payload and stores it under date. An empty date
// falls back to the date inside the payload.
func (s *Service) Import(ctx context.Context, date string, payload []byte) (*tasklog.LogRecord, tasklog.Report, error) {
	raw, err := tasklog.ParseRecord(date, payload)
	if err != nil {
		return nil, tasklog.Report{}, fmt.Errorf("failed to decode import: %w", err)
	}

	rec := s.normalizer.NormalizeRecord(raw)
	report := tasklog.Validate(raw.Tasks, rec.Tasks)

	if err := s.Save(ctx, rec); err != nil {
		return nil, report, err
	}

	s.log.Info("imported log", "date", rec.Date, "tasks", len(rec.Tasks), "dropped", report.Dropped())
	return rec, report, nil
}

// Delete removes the log for date
func (s *Service) Delete(ctx context.Context, date string) error {
	if err := s.store.Delete(ctx, date); err != nil {
		return fmt.Errorf("failed to delete log %s: %w", date, err)
	}
	return nil
}

// MigrationResult describes the migration of one log
type MigrationResult struct {
	Date   string
	Report tasklog.Report
	Err    error
}

// MigrationSummary aggregates a bulk migration
type MigrationSummary struct {
	Results  []MigrationResult
	Migrated int
	Skipped  int
	DryRun   bool
}

// Dropped returns the number of entries dropped across all logs
func (m *MigrationSummary) Dropped() int {
	total := 0
	for _, r := range m.Results {
		total += r.Report.Dropped()
	}
	return total
}

// Migrate rewrites every stored log in normalized form. Logs that cannot be
// decoded are recorded as skipped and left untouched; they never abort the
// run. With dryRun nothing is written.
func (s *Service) Migrate(ctx context.Context, dryRun bool) (*MigrationSummary, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MigrationSummary{DryRun: dryRun}
	for _, date := range dates {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		result := MigrationResult{Date: date}
		rec, report, err := s.load(ctx, date)
		result.Report = report
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			result.Err = err
			summary.Skipped++
			summary.Results = append(summary.Results, result)
			s.log.Warn("skipping log", "date", date, "err", err)
			continue
		}

		if !dryRun {
			if err := s.Save(ctx, rec); err != nil {
				return summary, err
			}
		}

		summary.Migrated++
		summary.Results = append(summary.Results, result)
		s.log.Debug("migrated log", "date", date, "tasks", len(rec.Tasks), "dropped", report.Dropped(), "dry_run", dryRun)
	}

	s.log.Info("migration finished", "migrated", summary.Migrated, "skipped", summary.Skipped, "dropped", summary.Dropped())
	return summary, nil
}
