package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"stockpulse/internal/config"
	"stockpulse/internal/files"
	"stockpulse/internal/services"
	"stockpulse/internal/validation"
	"stockpulse/pkg/contracts/domain"
)

// reloadTimeout bounds a single read-and-ingest run
const reloadTimeout = 2 * time.Minute

// ErrReloadDisabled is returned by Start when no source file or schedule is set
var ErrReloadDisabled = errors.New("reload job not configured")

// Loader installs a dataset from raw workbook bytes
type Loader interface {
	Load(ctx context.Context, source services.LoadSource, fileName string, data []byte) (*domain.DatasetInfo, error)
}

// ReloadJob re-ingests a workbook on disk on a cron schedule. Each run goes
// through the same load path as an upload, so a bad file leaves the current
// dataset in place.
type ReloadJob struct {
	cfg    config.ReloadConfig
	loader Loader
	check  *validation.FileValidator
	cron   *cron.Cron
	logger *slog.Logger
}

// NewReloadJob creates the job. Schedules are evaluated in loc.
func NewReloadJob(cfg config.ReloadConfig, loc *time.Location, loader Loader, logger *slog.Logger) *ReloadJob {
	if loc == nil {
		loc = time.UTC
	}
	logger = logger.With(slog.String("component", "reload_job"))
	cl := cronLogger{logger: logger}
	return &ReloadJob{
		cfg:    cfg,
		loader: loader,
		check:  validation.NewFileValidator(logger),
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start schedules the job and, when configured, runs it once in the
// background straight away
func (j *ReloadJob) Start(ctx context.Context) error {
	if !j.cfg.Enabled() {
		return ErrReloadDisabled
	}

	if _, err := j.cron.AddFunc(j.cfg.Schedule, func() {
		_ = j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid reload schedule %q: %w", j.cfg.Schedule, err)
	}

	j.cron.Start()
	j.logger.InfoContext(ctx, "reload job scheduled",
		slog.String("source_file", j.cfg.SourceFile),
		slog.String("schedule", j.cfg.Schedule),
		slog.Bool("on_startup", j.cfg.OnStartup))

	if j.cfg.OnStartup {
		go func() { _ = j.RunOnce(ctx) }()
	}
	return nil
}

// Stop halts the schedule and waits for a running reload to finish or ctx
// to expire
func (j *ReloadJob) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		j.logger.Warn("reload job did not finish before shutdown")
	}
}

// NextRun returns the next scheduled run, zero when nothing is scheduled
func (j *ReloadJob) NextRun() time.Time {
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce reads the source file and loads it. A directory source loads its
// most recently modified workbook.
func (j *ReloadJob) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	path, err := files.ResolveWorkbook(j.cfg.SourceFile)
	if err != nil {
		j.logger.ErrorContext(ctx, "reload source not found",
			slog.String("source_file", j.cfg.SourceFile),
			slog.String("error", err.Error()))
		return err
	}
	if err := j.check.ValidateWorkbookFile(path); err != nil {
		j.logger.ErrorContext(ctx, "reload source rejected",
			slog.String("source_file", path),
			slog.String("error", err.Error()))
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to read reload source",
			slog.String("source_file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("read %s: %w", path, err)
	}

	start := time.Now()
	info, err := j.loader.Load(ctx, services.SourceReload, filepath.Base(path), data)
	if err != nil {
		j.logger.ErrorContext(ctx, "scheduled reload failed, keeping current dataset",
			slog.String("source_file", path),
			slog.String("error", err.Error()))
		return err
	}

	j.logger.InfoContext(ctx, "scheduled reload completed",
		slog.String("dataset_id", info.ID),
		slog.Int("rows", info.RowCount),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// cronLogger routes cron's own messages to slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
