package history

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresBlobStore keeps blobs in the kv_blobs table. The value column is
// TEXT rather than JSONB so that whatever was written can always be read back,
// malformed or not.
type PostgresBlobStore struct {
	db *sql.DB
}

func NewPostgresBlobStore(db *sql.DB) *PostgresBlobStore {
	return &PostgresBlobStore{db: db}
}

func (s *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_blobs WHERE key = $1`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (s *PostgresBlobStore) Put(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO kv_blobs (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = $2,
			updated_at = $3
	`
	_, err := s.db.ExecContext(ctx, query, key, string(data), time.Now().UTC())
	return err
}
