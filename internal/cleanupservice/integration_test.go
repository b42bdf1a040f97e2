package cleanupservice

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/quillpost/internal/backend/memory"
	"github.com/sushihentaime/quillpost/internal/common"
)

func doneAt(t *testing.T, db *sql.DB, fileID string) sql.NullTime {
	t.Helper()

	var done sql.NullTime
	err := db.QueryRow("SELECT done_at FROM file_deletions WHERE file_id = $1", fileID).Scan(&done)
	require.NoError(t, err)

	return done
}

func TestCleanupWithBroker(t *testing.T) {
	db := common.TestDB("file://../../migrations", t)

	mb, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { mb.Close() })
	require.NoError(t, common.SetupExchanges(mb))

	mem := memory.New()
	storeFile(t, mem, "f1")

	s := NewCleanupService(db, mb, mb, mem, Config{BucketID: "images", BaseDelay: time.Millisecond}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Close)
	s.Run()

	require.NoError(t, s.ScheduleDeletion(context.Background(), "f1", "replaced"))

	assert.Eventually(t, func() bool {
		var done sql.NullTime
		err := db.QueryRow("SELECT done_at FROM file_deletions WHERE file_id = $1", "f1").Scan(&done)
		return err == nil && done.Valid
	}, 10*time.Second, 50*time.Millisecond)

	_, _, ok := mem.File("images", "f1")
	assert.False(t, ok)
}

func TestSweepWithDatabase(t *testing.T) {
	db := common.TestDB("file://../../migrations", t)

	producer := new(MockMessageProducer)
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(common.ErrRemoteUnavailable)

	mem := memory.New()
	storeFile(t, mem, "kept")
	storeFile(t, mem, "stale")

	s := NewCleanupService(db, producer, nil, mem, Config{BucketID: "images", Grace: time.Minute}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Close)

	ctx := context.Background()
	require.NoError(t, s.ScheduleDeletion(ctx, "kept", "replaced"))
	require.NoError(t, s.ScheduleDeletion(ctx, "stale", "retracted"))
	require.NoError(t, s.ScheduleDeletion(ctx, "stale", "retracted"))
	require.NoError(t, s.ScheduleDeletion(ctx, "gone", "retracted"))

	_, err := db.Exec("UPDATE file_deletions SET updated_at = NOW() - interval '1 hour' WHERE file_id IN ('stale', 'gone')")
	require.NoError(t, err)

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, ok := mem.File("images", "stale")
	assert.False(t, ok)
	_, _, ok = mem.File("images", "kept")
	assert.True(t, ok)

	assert.True(t, doneAt(t, db, "stale").Valid)
	assert.True(t, doneAt(t, db, "gone").Valid)
	assert.False(t, doneAt(t, db, "kept").Valid)

	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
