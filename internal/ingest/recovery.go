package ingest

import (
	"context"
	"fmt"

	"github.com/chanwatch/chanwatch/internal/telegram"
)

// recoverTooLong reconstructs a usable cursor after the provider declared the
// stored counter too stale to resume incrementally. It fetches the most
// recent bounded window of history and re-bootstraps the counter from fresh
// channel metadata, persisting it unconditionally. Messages older than the
// window are permanently skipped; the bounded loss buys bounded recovery
// cost.
func (s *Service) recoverTooLong(ctx context.Context, ent *telegram.Entity, identifier string) (syncOutcome, error) {
	messages, err := s.provider.History(ctx, ent, 0, s.limits.RecoveryPageSize)
	if err != nil {
		return syncOutcome{}, fmt.Errorf("recovery history: %w", err)
	}

	pts, err := s.provider.FullChannelPts(ctx, ent)
	if err != nil {
		return syncOutcome{}, fmt.Errorf("recovery pts: %w", err)
	}
	if err := s.cursors.SetInt64(ptsKey(identifier), pts); err != nil {
		return syncOutcome{}, fmt.Errorf("persist recovered pts: %w", err)
	}

	s.log.Warn().
		Str("identifier", identifier).
		Int("recovered", len(messages)).
		Int64("pts", pts).
		Msg("ingest: recovered from stale cursor, older messages beyond the window are lost")

	return syncOutcome{messages: messages}, nil
}
