package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Post is a persisted message. Identity is the pair
// (channel identifier, provider message id).
type Post struct {
	ID                uuid.UUID
	ChannelIdentifier string
	MessageID         int64
	Content           string
	CreatedAt         time.Time
}

// PostsRepository handles posts table operations.
type PostsRepository struct {
	pool *pgxpool.Pool
}

// NewPostsRepository creates a new posts repository.
func NewPostsRepository(pool *pgxpool.Pool) *PostsRepository {
	return &PostsRepository{pool: pool}
}

// Exists checks whether a post with the given identity is already stored.
func (r *PostsRepository) Exists(ctx context.Context, channelIdentifier string, messageID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM posts WHERE channel_identifier = $1 AND message_id = $2)
	`, channelIdentifier, messageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// InsertBatch writes all staged posts inside a single transaction and commits
// once. Rows colliding on (channel_identifier, message_id) are dropped by the
// database, so a retried pass never produces duplicates.
func (r *PostsRepository) InsertBatch(ctx context.Context, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	batch := &pgx.Batch{}
	for _, p := range posts {
		batch.Queue(`
			INSERT INTO posts (channel_identifier, message_id, content)
			VALUES ($1, $2, $3)
			ON CONFLICT (channel_identifier, message_id) DO NOTHING
		`, p.ChannelIdentifier, p.MessageID, p.Content)
	}

	br := tx.SendBatch(ctx, batch)
	for range posts {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert post: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit posts: %w", err)
	}
	return nil
}

// CountByChannel returns the number of stored posts per channel identifier.
func (r *PostsRepository) CountByChannel(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel_identifier, COUNT(*) FROM posts GROUP BY channel_identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var ident string
		var n int64
		if err := rows.Scan(&ident, &n); err != nil {
			return nil, fmt.Errorf("scan post count: %w", err)
		}
		counts[ident] = n
	}
	return counts, nil
}
