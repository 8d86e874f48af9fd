package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chanwatch/chanwatch/internal/ingest"
	"github.com/chanwatch/chanwatch/internal/logger"
	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
)

// Mock implementations for testing

type mockChannelsRepo struct {
	channels []repository.MonitoredChannel
}

func (m *mockChannelsRepo) List(ctx context.Context) ([]repository.MonitoredChannel, error) {
	return m.channels, nil
}

type mockRunner struct {
	last *ingest.PassResult
}

func (m *mockRunner) LastResult() *ingest.PassResult {
	return m.last
}

type mockTelegram struct {
	status telegram.Status
}

func (m *mockTelegram) GetStatus() telegram.Status {
	return m.status
}

func newTestServer(deps *Dependencies) *Server {
	return NewServer(0, deps, &logger.Logger{Logger: zerolog.Nop()})
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&Dependencies{
		ChannelsRepo:   &mockChannelsRepo{},
		Runner:         &mockRunner{},
		TelegramClient: &mockTelegram{status: telegram.StatusReady},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %s, want ok", resp.Status)
	}
	if resp.Telegram != string(telegram.StatusReady) {
		t.Errorf("telegram = %s, want %s", resp.Telegram, telegram.StatusReady)
	}
}

func TestHealthCheckDegradedWhenUnauthorized(t *testing.T) {
	srv := newTestServer(&Dependencies{
		ChannelsRepo:   &mockChannelsRepo{},
		Runner:         &mockRunner{},
		TelegramClient: &mockTelegram{status: telegram.StatusUnauthorized},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %s, want degraded", resp.Status)
	}
}

func TestListEntities(t *testing.T) {
	srv := newTestServer(&Dependencies{
		ChannelsRepo: &mockChannelsRepo{
			channels: []repository.MonitoredChannel{
				{ID: uuid.New(), Identifier: "@news", Title: "News"},
				{ID: uuid.New(), Identifier: "AbCdEfGh"},
			},
		},
		Runner:         &mockRunner{},
		TelegramClient: &mockTelegram{status: telegram.StatusReady},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp EntitiesListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
	if resp.Entities[0].Invite {
		t.Error("@news should not be flagged as invite")
	}
	if !resp.Entities[1].Invite {
		t.Error("bare hash should be flagged as invite")
	}
}

func TestLastPass(t *testing.T) {
	runner := &mockRunner{}
	srv := newTestServer(&Dependencies{
		ChannelsRepo:   &mockChannelsRepo{},
		Runner:         runner,
		TelegramClient: &mockTelegram{status: telegram.StatusReady},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/passes/last", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp LastPassResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ran {
		t.Error("no pass has run yet")
	}

	runner.last = &ingest.PassResult{Entities: 3, Staged: 7, StartedAt: time.Now()}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Ran || resp.Pass == nil || resp.Pass.Staged != 7 {
		t.Errorf("unexpected pass report: %+v", resp)
	}
}
