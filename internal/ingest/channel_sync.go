package ingest

import (
	"context"
	"fmt"

	"github.com/chanwatch/chanwatch/internal/telegram"
)

func ptsKey(identifier string) string {
	return "pts:" + identifier
}

// syncOutcome is what one entity sync produced: the messages to stage and an
// optional cursor advance to apply after staging. A nil cursor leaves the
// store untouched.
type syncOutcome struct {
	messages []telegram.Message
	cursor   *cursorAdvance
}

type cursorAdvance struct {
	key   string
	value int64
}

// syncBroadcast runs the pts-based difference protocol for a broadcast
// channel. With no stored cursor it bootstraps one from the full channel
// metadata and persists it before the first difference request.
func (s *Service) syncBroadcast(ctx context.Context, ent *telegram.Entity, identifier string) (syncOutcome, error) {
	key := ptsKey(identifier)

	pts, ok, err := s.cursors.GetInt64(key)
	if err != nil {
		return syncOutcome{}, fmt.Errorf("read pts cursor: %w", err)
	}
	if !ok {
		pts, err = s.provider.FullChannelPts(ctx, ent)
		if err != nil {
			return syncOutcome{}, fmt.Errorf("bootstrap pts: %w", err)
		}
		if err := s.cursors.SetInt64(key, pts); err != nil {
			return syncOutcome{}, fmt.Errorf("persist bootstrapped pts: %w", err)
		}
		s.log.Info().Str("identifier", identifier).Int64("pts", pts).Msg("ingest: bootstrapped channel cursor")
	}

	diff, err := s.provider.ChannelDifference(ctx, ent, pts, s.limits.HistoryPageSize)
	if err != nil {
		return syncOutcome{}, fmt.Errorf("get difference: %w", err)
	}

	switch diff.Kind {
	case telegram.DifferenceEmpty:
		s.log.Debug().Str("identifier", identifier).Int64("pts", pts).Msg("ingest: channel is up to date")
		return syncOutcome{}, nil

	case telegram.DifferenceTooLong:
		s.log.Warn().Str("identifier", identifier).Int64("pts", pts).Msg("ingest: cursor too stale, running recovery")
		return s.recoverTooLong(ctx, ent, identifier)

	case telegram.DifferenceNew:
		outcome := syncOutcome{messages: diff.Messages}
		if diff.Pts > pts {
			outcome.cursor = &cursorAdvance{key: key, value: diff.Pts}
			s.log.Info().
				Str("identifier", identifier).
				Int("messages", len(diff.Messages)).
				Int64("pts_from", pts).
				Int64("pts_to", diff.Pts).
				Msg("ingest: channel difference applied")
		} else {
			// regression guard: a non-increasing counter never touches the store
			s.log.Warn().
				Str("identifier", identifier).
				Int64("pts_stored", pts).
				Int64("pts_reported", diff.Pts).
				Msg("ingest: provider reported non-increasing pts, cursor left untouched")
		}
		return outcome, nil

	default:
		return syncOutcome{}, fmt.Errorf("unknown difference kind %d", diff.Kind)
	}
}
