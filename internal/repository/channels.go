// Package repository implements storage access for monitored channels and posts.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MonitoredChannel is an entity the watcher keeps in sync. The identifier is
// either a public handle ("@name"), a numeric id ("-100123..."), or an invite
// hash for private entities.
type MonitoredChannel struct {
	ID         uuid.UUID
	Identifier string
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsInvite reports whether the identifier is an invite hash rather than a
// handle or a numeric id.
func (c *MonitoredChannel) IsInvite() bool {
	return !strings.HasPrefix(c.Identifier, "@") && !strings.HasPrefix(c.Identifier, "-")
}

// ChannelsRepository handles monitored_channels table operations.
type ChannelsRepository struct {
	pool *pgxpool.Pool
}

// NewChannelsRepository creates a new channels repository.
func NewChannelsRepository(pool *pgxpool.Pool) *ChannelsRepository {
	return &ChannelsRepository{pool: pool}
}

// List returns all monitored channels ordered by identifier.
func (r *ChannelsRepository) List(ctx context.Context) ([]MonitoredChannel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, identifier, title, created_at, updated_at
		FROM monitored_channels
		ORDER BY identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []MonitoredChannel
	for rows.Next() {
		var c MonitoredChannel
		if err := rows.Scan(&c.ID, &c.Identifier, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, nil
}

// Create inserts a new monitored channel.
func (r *ChannelsRepository) Create(ctx context.Context, c *MonitoredChannel) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO monitored_channels (identifier, title)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, c.Identifier, c.Title).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

// Upsert inserts a channel or refreshes the title of an existing one. A seed
// run is idempotent because of this. Returns true when a new row was created.
func (r *ChannelsRepository) Upsert(ctx context.Context, c *MonitoredChannel) (bool, error) {
	var created bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO monitored_channels (identifier, title)
		VALUES ($1, $2)
		ON CONFLICT (identifier) DO UPDATE
		SET title = COALESCE(NULLIF(EXCLUDED.title, ''), monitored_channels.title),
		    updated_at = NOW()
		RETURNING id, created_at, updated_at, (created_at = updated_at)
	`, c.Identifier, c.Title).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert channel: %w", err)
	}
	return created, nil
}

// UpdateIdentifier rewrites the identifier in place. Used when an invite hash
// resolves to a permanent numeric id.
func (r *ChannelsRepository) UpdateIdentifier(ctx context.Context, id uuid.UUID, identifier string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE monitored_channels
		SET identifier = $2, updated_at = NOW()
		WHERE id = $1
	`, id, identifier)
	if err != nil {
		return fmt.Errorf("update channel identifier: %w", err)
	}
	return nil
}

// UpdateTitle backfills the display title.
func (r *ChannelsRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE monitored_channels
		SET title = $2, updated_at = NOW()
		WHERE id = $1
	`, id, title)
	if err != nil {
		return fmt.Errorf("update channel title: %w", err)
	}
	return nil
}

// Delete removes a channel from the monitored set.
func (r *ChannelsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM monitored_channels WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// DeleteByIdentifier removes a channel by its identifier. Used by the operator
// tool.
func (r *ChannelsRepository) DeleteByIdentifier(ctx context.Context, identifier string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM monitored_channels WHERE identifier = $1
	`, identifier)
	if err != nil {
		return false, fmt.Errorf("delete channel by identifier: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
