package ingest

import (
	"context"
	"errors"

	"github.com/chanwatch/chanwatch/internal/telegram"
)

// resolveEntity resolves an identifier to a live entity. On a cache miss it
// refreshes the dialog cache and retries exactly once; any other failure or a
// second miss yields nil.
func (s *Service) resolveEntity(ctx context.Context, identifier string) *telegram.Entity {
	ent, err := s.provider.GetEntity(ctx, identifier)
	if err == nil {
		return ent
	}
	if !errors.Is(err, telegram.ErrEntityNotFound) {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("ingest: entity lookup failed")
		return nil
	}

	s.log.Info().Str("identifier", identifier).Msg("ingest: entity not in cache, refreshing dialogs")
	if err := s.provider.RefreshDialogs(ctx); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("ingest: dialog refresh failed")
		return nil
	}

	ent, err = s.provider.GetEntity(ctx, identifier)
	if err != nil {
		s.log.Info().Str("identifier", identifier).Msg("ingest: entity still unavailable after refresh")
		return nil
	}
	return ent
}
