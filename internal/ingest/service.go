// Package ingest implements the incremental synchronization engine: per-entity
// strategy selection, cursor maintenance, stale-cursor recovery and
// deduplicated persistence of observed messages.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chanwatch/chanwatch/internal/logger"
	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
)

// Provider is the messaging RPC surface required by the sync engine.
type Provider interface {
	CheckMembership(ctx context.Context, identifier string) (bool, error)
	JoinChannel(ctx context.Context, identifier string) (telegram.JoinOutcome, error)
	ImportInvite(ctx context.Context, hash string) (telegram.JoinOutcome, error)
	CheckInvite(ctx context.Context, hash string) (*telegram.InviteCheck, error)
	GetEntity(ctx context.Context, identifier string) (*telegram.Entity, error)
	RefreshDialogs(ctx context.Context) error
	FullChannelPts(ctx context.Context, ent *telegram.Entity) (int64, error)
	ChannelDifference(ctx context.Context, ent *telegram.Entity, pts int64, limit int) (*telegram.Difference, error)
	History(ctx context.Context, ent *telegram.Entity, minID int64, limit int) ([]telegram.Message, error)
}

// CursorStore is the per-entity progress store.
type CursorStore interface {
	GetInt64(key string) (int64, bool, error)
	SetInt64(key string, value int64) error
	GetBool(key string) (bool, error)
	SetBool(key string, value bool) error
	Delete(keys ...string) error
}

// ChannelStore manages the monitored entity set. Entities are created
// elsewhere; the engine only reads them, rewrites identifiers and titles, and
// removes entities that turned out unrecoverable.
type ChannelStore interface {
	List(ctx context.Context) ([]repository.MonitoredChannel, error)
	UpdateIdentifier(ctx context.Context, id uuid.UUID, identifier string) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostStore persists deduplicated messages.
type PostStore interface {
	Exists(ctx context.Context, channelIdentifier string, messageID int64) (bool, error)
	InsertBatch(ctx context.Context, posts []repository.Post) error
}

// PostNewEvent is emitted for every message persisted in a pass.
type PostNewEvent struct {
	ChannelIdentifier string    `json:"channel_identifier"`
	MessageID         int64     `json:"message_id"`
	Content           string    `json:"content"`
	ObservedAt        time.Time `json:"observed_at"`
}

// EventPublisher publishes post events after a successful commit.
type EventPublisher interface {
	PublishPostNew(ctx context.Context, event PostNewEvent) error
}

// Limits holds the page sizes of the sync protocol.
type Limits struct {
	HistoryPageSize  int // incremental difference/history reads
	RecoveryPageSize int // bounded window fetched after a stale cursor
}

// DefaultLimits returns the page sizes used in production.
func DefaultLimits() Limits {
	return Limits{HistoryPageSize: 50, RecoveryPageSize: 100}
}

// PassResult contains the statistics of one synchronization pass.
type PassResult struct {
	Entities          int       `json:"entities"`
	Staged            int       `json:"staged"`
	SkippedDuplicate  int       `json:"skipped_duplicate"`
	SkippedEmpty      int       `json:"skipped_empty"`
	Dropped           int       `json:"dropped"`
	Errors            int       `json:"errors"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Service runs synchronization passes over the monitored entity set.
type Service struct {
	provider  Provider
	cursors   CursorStore
	channels  ChannelStore
	posts     PostStore
	publisher EventPublisher // optional
	limits    Limits
	log       *logger.Logger
}

// NewService creates the sync engine with its collaborators.
func NewService(
	provider Provider,
	cursors CursorStore,
	channels ChannelStore,
	posts PostStore,
	publisher EventPublisher,
	limits Limits,
	log *logger.Logger,
) *Service {
	if limits.HistoryPageSize <= 0 {
		limits.HistoryPageSize = DefaultLimits().HistoryPageSize
	}
	if limits.RecoveryPageSize <= 0 {
		limits.RecoveryPageSize = DefaultLimits().RecoveryPageSize
	}
	return &Service{
		provider:  provider,
		cursors:   cursors,
		channels:  channels,
		posts:     posts,
		publisher: publisher,
		limits:    limits,
		log:       log,
	}
}

// RunPass performs one synchronization pass: every monitored entity is
// subscribed, resolved and synced in order, new messages are staged, and all
// staged rows are committed once at the end. A per-entity failure is isolated;
// a commit failure affects the whole pass and leaves cursors ahead of durable
// state.
func (s *Service) RunPass(ctx context.Context) (*PassResult, error) {
	result := &PassResult{StartedAt: time.Now()}

	channels, err := s.channels.List(ctx)
	if err != nil {
		return nil, err
	}
	result.Entities = len(channels)
	if len(channels) == 0 {
		s.log.Debug().Msg("ingest: no monitored entities")
		result.FinishedAt = time.Now()
		return result, nil
	}

	var staged []repository.Post
	var events []PostNewEvent

	// staging checks and the final commit outlive a shutdown signal: an
	// interrupted pass still commits what it already staged
	detached := context.WithoutCancel(ctx)

	for i := range channels {
		if ctx.Err() != nil {
			s.log.Info().Msg("ingest: pass interrupted, committing what is staged")
			break
		}

		ch := &channels[i]
		s.processEntity(ctx, detached, ch, result, &staged, &events)
	}

	// batch-at-end commit: one transaction for everything staged this pass
	if err := s.posts.InsertBatch(detached, staged); err != nil {
		s.log.Error().Err(err).
			Int("staged", len(staged)).
			Msg("ingest: pass commit failed; cursors already advanced past these messages, they will not be re-fetched")
		result.FinishedAt = time.Now()
		return result, err
	}
	result.Staged = len(staged)

	s.publishAll(detached, events)

	result.FinishedAt = time.Now()
	s.log.Info().
		Int("entities", result.Entities).
		Int("staged", result.Staged).
		Int("skipped_duplicate", result.SkippedDuplicate).
		Int("skipped_empty", result.SkippedEmpty).
		Int("dropped", result.Dropped).
		Int("errors", result.Errors).
		Msg("ingest: pass complete")

	return result, nil
}

// processEntity syncs a single monitored entity. Every failure is logged and
// isolated; the pass continues with the next entity. Provider calls run on
// ctx so they stop on shutdown; storage-side staging runs on detached.
func (s *Service) processEntity(
	ctx context.Context,
	detached context.Context,
	ch *repository.MonitoredChannel,
	result *PassResult,
	staged *[]repository.Post,
	events *[]PostNewEvent,
) {
	if ch.IsInvite() {
		keep := s.handleInvite(ctx, ch, result)
		if !keep {
			return
		}
	} else if !s.ensureSubscribed(ctx, ch.Identifier) {
		return
	}

	ent := s.resolveEntity(ctx, ch.Identifier)
	if ent == nil {
		s.log.Info().Str("identifier", ch.Identifier).Msg("ingest: entity not resolvable, skipping")
		return
	}

	if ch.Title == "" && ent.Title != "" {
		if err := s.channels.UpdateTitle(ctx, ch.ID, ent.Title); err != nil {
			s.log.Warn().Err(err).Str("identifier", ch.Identifier).Msg("ingest: title backfill failed")
		} else {
			ch.Title = ent.Title
		}
	}

	var outcome syncOutcome
	var err error
	switch ent.Kind {
	case telegram.KindBroadcast:
		outcome, err = s.syncBroadcast(ctx, ent, ch.Identifier)
	case telegram.KindChat:
		outcome, err = s.syncChat(ctx, ent, ch.Identifier)
	case telegram.KindForbidden:
		s.log.Warn().Str("identifier", ch.Identifier).Msg("ingest: access to entity is forbidden, skipping")
		return
	}
	if errors.Is(err, telegram.ErrAccessForbidden) {
		s.log.Warn().Str("identifier", ch.Identifier).Msg("ingest: read access forbidden, skipping")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("identifier", ch.Identifier).Msg("ingest: sync failed")
		result.Errors++
		return
	}

	complete := s.stage(detached, ch.Identifier, outcome.messages, result, staged, events)
	if !complete {
		// some candidates were never staged; holding the cursor re-fetches
		// them next pass and dedup drops what did make it in
		s.log.Warn().Str("identifier", ch.Identifier).Msg("ingest: staging incomplete, cursor withheld")
		return
	}

	// the cursor moves only after the corresponding messages are staged
	if outcome.cursor != nil {
		if err := s.cursors.SetInt64(outcome.cursor.key, outcome.cursor.value); err != nil {
			s.log.Error().Err(err).Str("identifier", ch.Identifier).Msg("ingest: cursor write failed")
			result.Errors++
		}
	}
}

func (s *Service) publishAll(ctx context.Context, events []PostNewEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := s.publisher.PublishPostNew(ctx, ev); err != nil {
			s.log.Warn().Err(err).
				Str("identifier", ev.ChannelIdentifier).
				Int64("message_id", ev.MessageID).
				Msg("ingest: failed to publish post event")
		}
	}
}
