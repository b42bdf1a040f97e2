package cleanupservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/common"
)

// Deletion is a ledger row for a file waiting to be removed from storage.
type Deletion struct {
	ID        int64
	FileID    string
	Reason    string
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LedgerModel struct {
	db *sql.DB
}

type Config struct {
	BucketID string
	// Grace is how long a pending row is left to the message consumer before the sweep picks it up.
	Grace      time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	SweepBatch int
}

// CleanupService deletes files that no post references any more. Every
// deletion is recorded in the ledger before it is attempted, so a lost
// message or a crash is recovered by the periodic sweep.
type CleanupService struct {
	m        *LedgerModel
	producer common.MessageProducer
	consumer common.MessageConsumer
	storage  backend.Storage
	cfg      Config
	logger   *slog.Logger
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
}
