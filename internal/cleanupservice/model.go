package cleanupservice

import (
	"context"
	"database/sql"
	"time"
)

func NewLedgerModel(db *sql.DB) *LedgerModel {
	return &LedgerModel{db: db}
}

// insert records a pending deletion. Scheduling the same file twice is a no-op.
func (m *LedgerModel) insert(ctx context.Context, fileID, reason string) error {
	query := `
		INSERT INTO file_deletions (file_id, reason)
		VALUES ($1, $2)
		ON CONFLICT (file_id) DO NOTHING`

	_, err := m.db.ExecContext(ctx, query, fileID, reason)
	return err
}

func (m *LedgerModel) markDone(ctx context.Context, fileID string) error {
	query := `
		UPDATE file_deletions
		SET done_at = NOW(), updated_at = NOW(), attempts = attempts + 1, last_error = ''
		WHERE file_id = $1 AND done_at IS NULL`

	_, err := m.db.ExecContext(ctx, query, fileID)
	return err
}

func (m *LedgerModel) recordFailure(ctx context.Context, fileID, message string) error {
	query := `
		UPDATE file_deletions
		SET attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE file_id = $1 AND done_at IS NULL`

	_, err := m.db.ExecContext(ctx, query, fileID, message)
	return err
}

// pending returns rows not touched since before, oldest first.
func (m *LedgerModel) pending(ctx context.Context, before time.Time, limit int) ([]Deletion, error) {
	query := `
		SELECT id, file_id, reason, attempts, last_error, created_at, updated_at
		FROM file_deletions
		WHERE done_at IS NULL AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`

	rows, err := m.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deletions []Deletion
	for rows.Next() {
		var d Deletion
		err := rows.Scan(&d.ID, &d.FileID, &d.Reason, &d.Attempts, &d.LastError, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		deletions = append(deletions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return deletions, nil
}
