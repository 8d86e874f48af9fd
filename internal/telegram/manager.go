package telegram

import (
	"context"
	"sync"

	"github.com/celestix/gotgproto"
	"gorm.io/gorm"

	"github.com/chanwatch/chanwatch/internal/config"
	"github.com/chanwatch/chanwatch/internal/logger"
)

// Status represents the Telegram client status.
type Status string

// Status constants define the possible states of the Telegram client.
const (
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusUnauthorized Status = "UNAUTHORIZED"
)

// ClientFactory is a function that creates a telegram client.
type ClientFactory func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error)

// Manager handles the Telegram client lifecycle. There is exactly one
// long-lived protocol connection; the watcher refuses to start passes until
// the manager reports StatusReady.
type Manager struct {
	client *gotgproto.Client
	db     *gorm.DB
	cfg    *config.Config
	log    *logger.Logger

	status Status
	mu     sync.RWMutex

	clientFactory ClientFactory
}

// NewManager creates a new Telegram Manager.
func NewManager(cfg *config.Config, db *gorm.DB) *Manager {
	return &Manager{
		db:            db,
		cfg:           cfg,
		log:           logger.Get(),
		status:        StatusInitializing,
		clientFactory: NewPersistentClient,
	}
}

// SetClientFactory allows overriding the client creation logic (e.g. for testing).
func (m *Manager) SetClientFactory(f ClientFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientFactory = f
}

// GetStatus returns the current Telegram client status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// GetClient returns the underlying Telegram client, nil until ready.
func (m *Manager) GetClient() *gotgproto.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Init creates the protocol client from the configured session. With no
// session string and an empty sessions table there is nothing to connect
// with, so the manager stays unauthorized instead of failing the process.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	m.status = StatusInitializing
	m.mu.Unlock()

	if m.cfg.TGSessionStr == "" {
		var count int64
		if err := m.db.Table("sessions").Count(&count).Error; err != nil {
			m.log.Warn().Err(err).Msg("telegram: failed to check sessions table")
		}
		if count == 0 {
			m.log.Info().Msg("telegram: no session available, run tg-auth first")
			m.mu.Lock()
			m.status = StatusUnauthorized
			m.mu.Unlock()
			return nil
		}
	}

	client, err := m.clientFactory(ctx, m.cfg, m.db)
	if err != nil {
		m.log.Warn().Err(err).Msg("telegram: failed to initialize client, staying unauthorized")
		m.mu.Lock()
		m.status = StatusUnauthorized
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.client = client
	m.status = StatusReady
	m.mu.Unlock()

	m.log.Info().Msg("telegram: client is ready")
	return nil
}

// Stop stops the Telegram client.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Stop()
	}
}
