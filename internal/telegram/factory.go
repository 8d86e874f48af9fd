package telegram

import (
	"context"
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"gorm.io/gorm"

	"github.com/chanwatch/chanwatch/internal/config"
)

// NewPersistentClient creates a telegram client backed by the database for
// session storage. When TG_SESSION_STRING is set it seeds the session from
// the string; auth key refreshes are persisted back to the DB either way.
func NewPersistentClient(_ context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
	var sessionConstructor sessionMaker.SessionConstructor
	if cfg.TGSessionStr != "" {
		sessionConstructor = sessionMaker.StringSession(cfg.TGSessionStr)
	} else {
		sessionConstructor = sessionMaker.SqlSession(db.Dialector)
	}

	clientOpts := &gotgproto.ClientOpts{
		Session:          sessionConstructor,
		DisableCopyright: true,
		InMemory:         false,
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		clientOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	return client, nil
}
