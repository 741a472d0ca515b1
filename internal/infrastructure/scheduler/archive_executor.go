package scheduler

import (
	"context"
	"fmt"

	appaudit "github.com/merchpulse/backend/internal/application/audit"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"go.uber.org/zap"
)

// DayArchiver exports one day of audit entries
type DayArchiver interface {
	ArchiveDay(ctx context.Context, day attendance.DayWindow) (*appaudit.ArchiveResult, error)
}

// ArchiveExecutor runs JobTypeAuditArchive jobs
type ArchiveExecutor struct {
	archiver DayArchiver
	logger   *zap.Logger
}

// NewArchiveExecutor creates the audit archive executor
func NewArchiveExecutor(archiver DayArchiver, logger *zap.Logger) *ArchiveExecutor {
	return &ArchiveExecutor{archiver: archiver, logger: logger}
}

// Execute implements JobExecutor
func (e *ArchiveExecutor) Execute(ctx context.Context, job *Job) error {
	if job.Type != JobTypeAuditArchive {
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}

	result, err := e.archiver.ArchiveDay(ctx, job.Day)
	if err != nil {
		return fmt.Errorf("archive audit entries for %s: %w", job.Day.Date(), err)
	}

	e.logger.Info("Audit archive job finished",
		zap.String("job_id", job.ID.String()),
		zap.String("key", result.Key),
		zap.Int("entries", result.Entries),
		zap.Bool("skipped", result.Skipped),
	)
	return nil
}
