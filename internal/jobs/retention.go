package jobs

import (
	"log/slog"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/views"
)

// RetentionJob prunes view events older than the configured retention
// period. Raw view rows only feed trend charts up to a year back, so rows
// beyond that are dead weight.
type RetentionJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewRetentionJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *RetentionJob {
	return &RetentionJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run deletes expired view events in batches so the database is never
// locked for long.
func (j *RetentionJob) Run() error {
	retentionDays := j.cfg.ViewEventRetentionDays
	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().UTC().AddDate(0, 0, -retentionDays)

	var countToDelete int64
	if err := db.Model(&views.ViewEvent{}).
		Where("occurred_at < ?", cutoffDate).
		Count(&countToDelete).Error; err != nil {
		j.logger.Error("Failed to count expired view events", slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No expired view events to prune")
		return nil
	}

	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := db.Exec(`
			DELETE FROM view_events
			WHERE id IN (
				SELECT id FROM view_events WHERE occurred_at < ? LIMIT ?
			)
		`, cutoffDate, batchSize)

		if result.Error != nil {
			j.logger.Error("Failed to delete expired view events",
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return result.Error
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}

		// Brief pause between batches to limit lock contention.
		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Pruned expired view events",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
