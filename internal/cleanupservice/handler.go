package cleanupservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

func NewCleanupService(db *sql.DB, producer common.MessageProducer, consumer common.MessageConsumer, storage backend.Storage, cfg Config, logger *slog.Logger) *CleanupService {
	if cfg.Grace <= 0 {
		cfg.Grace = 10 * time.Minute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		m:        NewLedgerModel(db),
		producer: producer,
		consumer: consumer,
		storage:  storage,
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ScheduleDeletion records fileID in the ledger and notifies the consumer.
// Once the row is written the call succeeds even if the notification is
// lost, since the sweep will find the row.
func (s *CleanupService) ScheduleDeletion(ctx context.Context, fileID, reason string) error {
	if fileID == "" {
		return common.ValidationError{Errors: map[string]string{"file_id": "must be provided"}}
	}

	if err := s.m.insert(ctx, fileID, reason); err != nil {
		return fmt.Errorf("could not record file deletion: %w", err)
	}

	msg, err := json.Marshal(common.FileOrphanedMessage{FileID: fileID, Reason: reason})
	if err != nil {
		return err
	}

	err = s.producer.Publish(ctx, msg, common.FileOrphanedKey, common.FileExchange)
	if err != nil {
		s.logger.Error("could not publish file.orphaned, leaving it to the sweep", slog.String("file_id", fileID), slog.String("error", err.Error()))
	}

	return nil
}

// Run consumes file.orphaned messages until Close is called.
func (s *CleanupService) Run() {
	msgs, err := s.consumer.Consume(common.FileOrphanedKey, common.FileExchange, common.FileOrphanedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data common.FileOrphanedMessage
				err := json.Unmarshal(msg.Body, &data)
				if err != nil || data.FileID == "" {
					s.logger.Error("could not unmarshal message", slog.String("body", string(msg.Body)))
					msg.Ack(false)
					continue
				}

				s.deleteWithBackoff(data.FileID)
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping file cleanup consumer due to context cancellation")
				return
			}
		}
	}()
}

// deleteWithBackoff retries with exponential backoff and full jitter, then
// records the outcome in the ledger.
func (s *CleanupService) deleteWithBackoff(fileID string) {
	var err error
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		err = s.deleteFile(s.ctx, fileID)
		if err == nil || common.KindOf(err) == common.KindValidation || attempt+1 == s.cfg.MaxRetries {
			break
		}

		delay := common.Backoff(s.cfg.BaseDelay, attempt)
		s.logger.Info("delaying file deletion", slog.String("file_id", fileID), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.record(s.ctx, fileID, err)
}

// deleteFile treats a file that is already gone as deleted.
func (s *CleanupService) deleteFile(ctx context.Context, fileID string) error {
	err := s.storage.DeleteFile(ctx, s.cfg.BucketID, fileID)
	if common.KindOf(err) == common.KindNotFound {
		return nil
	}
	return err
}

func (s *CleanupService) record(ctx context.Context, fileID string, deleteErr error) {
	if deleteErr == nil {
		if err := s.m.markDone(ctx, fileID); err != nil {
			s.logger.Error("could not mark file deletion done", slog.String("file_id", fileID), slog.String("error", err.Error()))
			return
		}
		s.logger.Info("file deleted", slog.String("file_id", fileID))
		return
	}

	s.logger.Error("could not delete file", slog.String("file_id", fileID), slog.String("error", deleteErr.Error()))
	if err := s.m.recordFailure(ctx, fileID, deleteErr.Error()); err != nil {
		s.logger.Error("could not record file deletion failure", slog.String("file_id", fileID), slog.String("error", err.Error()))
	}
}

// Sweep makes one delete attempt for every pending row older than the grace
// period and returns how many files were removed.
func (s *CleanupService) Sweep(ctx context.Context) (int, error) {
	rows, err := s.m.pending(ctx, time.Now().Add(-s.cfg.Grace), s.cfg.SweepBatch)
	if err != nil {
		return 0, fmt.Errorf("could not list pending file deletions: %w", err)
	}

	var done int
	for _, d := range rows {
		err := s.deleteFile(ctx, d.FileID)
		s.record(ctx, d.FileID, err)
		if err == nil {
			done++
		}
	}

	return done, nil
}

// StartSweeper runs Sweep on the given cron schedule, e.g. "@every 15m".
func (s *CleanupService) StartSweeper(schedule string) error {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
		defer cancel()

		n, err := s.Sweep(ctx)
		if err != nil {
			s.logger.Error("file sweep failed", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("file sweep finished", slog.Int("deleted", n))
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()

	return nil
}

func (s *CleanupService) Close() {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
