package api

import (
	"net/http"

	"github.com/chanwatch/chanwatch/internal/telegram"
)

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Telegram: string(s.deps.TelegramClient.GetStatus()),
	}
	if s.deps.TelegramClient.GetStatus() != telegram.StatusReady {
		resp.Status = "degraded"
	}
	if s.deps.NATS != nil {
		resp.NATS = "disconnected"
		if s.deps.NATS.IsConnected() {
			resp.NATS = "connected"
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	channels, err := s.deps.ChannelsRepo.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := EntitiesListResponse{
		Entities: make([]EntityResponse, 0, len(channels)),
		Total:    len(channels),
	}
	for _, ch := range channels {
		resp.Entities = append(resp.Entities, EntityResponse{
			ID:         ch.ID,
			Identifier: ch.Identifier,
			Title:      ch.Title,
			Invite:     ch.IsInvite(),
			CreatedAt:  ch.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lastPass(w http.ResponseWriter, r *http.Request) {
	last := s.deps.Runner.LastResult()
	s.writeJSON(w, http.StatusOK, LastPassResponse{
		Ran:  last != nil,
		Pass: last,
	})
}
