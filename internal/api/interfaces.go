package api

import (
	"context"

	"github.com/chanwatch/chanwatch/internal/ingest"
	"github.com/chanwatch/chanwatch/internal/repository"
	"github.com/chanwatch/chanwatch/internal/telegram"
)

// ChannelsRepository defines the interface for monitored entity data access.
type ChannelsRepository interface {
	List(ctx context.Context) ([]repository.MonitoredChannel, error)
}

// PassReporter exposes the outcome of the most recent synchronization pass.
type PassReporter interface {
	LastResult() *ingest.PassResult
}

// TelegramClient defines the interface for Telegram status reporting.
type TelegramClient interface {
	GetStatus() telegram.Status
}

// NATSConn reports broker connectivity.
type NATSConn interface {
	IsConnected() bool
}
