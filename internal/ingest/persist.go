package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
)

// stage filters candidate messages and appends the survivors to the pass
// batch. Empty text and already-persisted identities are dropped silently;
// the actual insert happens once at the end of the pass. Returns false when
// any candidate could not be checked, so the caller holds the cursor and the
// window is re-fetched next pass.
func (s *Service) stage(
	ctx context.Context,
	identifier string,
	messages []telegram.Message,
	result *PassResult,
	staged *[]repository.Post,
	events *[]PostNewEvent,
) bool {
	seen := make(map[int64]bool, len(messages))
	complete := true

	for _, m := range messages {
		if strings.TrimSpace(m.Text) == "" {
			result.SkippedEmpty++
			continue
		}
		if seen[m.ID] {
			result.SkippedDuplicate++
			continue
		}
		seen[m.ID] = true

		exists, err := s.posts.Exists(ctx, identifier, m.ID)
		if err != nil {
			s.log.Error().Err(err).
				Str("identifier", identifier).
				Int64("message_id", m.ID).
				Msg("ingest: duplicate check failed")
			result.Errors++
			complete = false
			continue
		}
		if exists {
			result.SkippedDuplicate++
			continue
		}

		*staged = append(*staged, repository.Post{
			ChannelIdentifier: identifier,
			MessageID:         m.ID,
			Content:           m.Text,
		})
		*events = append(*events, PostNewEvent{
			ChannelIdentifier: identifier,
			MessageID:         m.ID,
			Content:           m.Text,
			ObservedAt:        time.Now(),
		})
	}

	return complete
}
