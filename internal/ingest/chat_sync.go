package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/chanwatch/chanwatch/internal/telegram"
)

func chatCursorKey(identifier string) string {
	return "chat_last_max_id:" + identifier
}

// syncChat polls history for entities without the difference protocol (plain
// chats, migrated groups, supergroups used as chats). The cursor is the
// highest message id observed; results are filtered to strictly newer ids and
// returned in ascending order.
func (s *Service) syncChat(ctx context.Context, ent *telegram.Entity, identifier string) (syncOutcome, error) {
	key := chatCursorKey(identifier)

	lastMaxID, _, err := s.cursors.GetInt64(key)
	if err != nil {
		return syncOutcome{}, fmt.Errorf("read chat cursor: %w", err)
	}

	messages, err := s.provider.History(ctx, ent, lastMaxID, s.limits.HistoryPageSize)
	if err != nil {
		// access-forbidden propagates as-is: a permanent skip, not a retryable error
		return syncOutcome{}, err
	}

	var fresh []telegram.Message
	for _, m := range messages {
		if m.ID > lastMaxID {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		s.log.Debug().Str("identifier", identifier).Int64("last_max_id", lastMaxID).Msg("ingest: no new chat messages")
		return syncOutcome{}, nil
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	maxID := fresh[len(fresh)-1].ID

	s.log.Info().
		Str("identifier", identifier).
		Int("messages", len(fresh)).
		Int64("max_id_from", lastMaxID).
		Int64("max_id_to", maxID).
		Msg("ingest: chat poll picked up new messages")

	return syncOutcome{
		messages: fresh,
		cursor:   &cursorAdvance{key: key, value: maxID},
	}, nil
}
