// Package telegram provides the MTProto provider adapter for the sync engine.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/chanwatch/chanwatch/internal/logger"
)

// MaxMessageID is the highest message id Telegram can assign (32-bit signed).
const MaxMessageID = 1<<31 - 1

// ErrEntityNotFound is returned when an identifier cannot be resolved from
// the local dialog cache or the directory.
var ErrEntityNotFound = errors.New("entity not found")

// Client wraps the raw MTProto API with the provider surface the sync engine
// needs. Numeric identifiers resolve against a dialog cache that callers can
// refresh explicitly.
type Client struct {
	manager     *Manager
	rateLimiter *RateLimiter
	log         *logger.Logger

	mu     sync.Mutex
	byID   map[int64]*Entity  // channel/chat id -> entity
	byName map[string]*Entity // lowercased handle -> entity
}

// NewClient creates a new telegram client wrapper using the Manager.
func NewClient(manager *Manager) *Client {
	return &Client{
		manager:     manager,
		rateLimiter: DefaultRateLimiter(),
		log:         logger.Get(),
		byID:        make(map[int64]*Entity),
		byName:      make(map[string]*Entity),
	}
}

// Close stops the client via the manager.
func (c *Client) Close() {
	if c.manager != nil {
		c.manager.Stop()
	}
}

// GetStatus returns the current status of the telegram client.
func (c *Client) GetStatus() Status {
	return c.manager.GetStatus()
}

// API returns the raw tg.Client for direct API calls.
func (c *Client) API() (*tg.Client, error) {
	proto := c.manager.GetClient()
	if proto == nil {
		return nil, fmt.Errorf("telegram client not authorized")
	}
	return proto.API(), nil
}

// wait applies the rate limit before an RPC call.
func (c *Client) wait(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}

// hold feeds FLOOD_WAIT penalties back into the rate limiter.
func (c *Client) hold(err error) {
	if d, ok := tgerr.AsFloodWait(err); ok {
		c.log.Warn().Dur("flood_wait", d).Msg("telegram: FLOOD_WAIT received, backing off")
		c.rateLimiter.SetFloodWait(d)
	}
}

func (c *Client) cache(ent *Entity, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[ent.ID] = ent
	if handle != "" {
		c.byName[strings.ToLower(handle)] = ent
	}
}

// GetEntity resolves an identifier to a live entity. Handles go through the
// directory; numeric identifiers are served from the dialog cache only, so a
// miss means the caller should RefreshDialogs and retry.
func (c *Client) GetEntity(ctx context.Context, identifier string) (*Entity, error) {
	if handle, ok := strings.CutPrefix(identifier, "@"); ok {
		return c.resolveHandle(ctx, handle)
	}

	id, _, err := parseMarkedID(identifier)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	ent, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		return nil, ErrEntityNotFound
	}
	return ent, nil
}

func (c *Client) resolveHandle(ctx context.Context, handle string) (*Entity, error) {
	c.mu.Lock()
	if ent, ok := c.byName[strings.ToLower(handle)]; ok {
		c.mu.Unlock()
		return ent, nil
	}
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: handle,
	})
	if err != nil {
		c.hold(err)
		if tgerr.Is(err, "USERNAME_NOT_OCCUPIED", "USERNAME_INVALID") {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("resolve username %s: %w", handle, err)
	}
	if len(resolved.Chats) == 0 {
		return nil, ErrEntityNotFound
	}

	ent := entityFromChat(resolved.Chats[0])
	if ent == nil {
		return nil, ErrEntityNotFound
	}
	c.cache(ent, handle)
	return ent, nil
}

// RefreshDialogs re-reads the dialog list and repopulates the entity cache.
// This is the catch-up step the resolver performs once before giving up on a
// numeric identifier.
func (c *Client) RefreshDialogs(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	api, err := c.API()
	if err != nil {
		return err
	}

	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      100,
	})
	if err != nil {
		c.hold(err)
		return fmt.Errorf("get dialogs: %w", err)
	}

	var chats []tg.ChatClass
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	}

	for _, chat := range chats {
		if ent := entityFromChat(chat); ent != nil {
			c.cache(ent, "")
		}
	}

	c.log.Debug().Int("chats", len(chats)).Msg("telegram: dialog cache refreshed")
	return nil
}

// CheckMembership reports whether the acting account participates in the
// entity behind the identifier. Unresolvable identifiers read as not a
// member; basic chats present in the dialog list imply membership.
func (c *Client) CheckMembership(ctx context.Context, identifier string) (bool, error) {
	ent, err := c.GetEntity(ctx, identifier)
	if errors.Is(err, ErrEntityNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if ent.Kind == KindChat && ent.AccessHash == 0 {
		return true, nil
	}

	if err := c.wait(ctx); err != nil {
		return false, err
	}
	api, err := c.API()
	if err != nil {
		return false, err
	}

	_, err = api.ChannelsGetParticipant(ctx, &tg.ChannelsGetParticipantRequest{
		Channel:     inputChannel(ent),
		Participant: &tg.InputPeerSelf{},
	})
	if err != nil {
		c.hold(err)
		if tgerr.Is(err, "USER_NOT_PARTICIPANT") {
			return false, nil
		}
		return false, fmt.Errorf("get participant: %w", err)
	}
	return true, nil
}

// JoinChannel joins the entity behind a handle or numeric identifier and
// classifies the outcome. The returned error is set only for transport-level
// failures the caller should log.
func (c *Client) JoinChannel(ctx context.Context, identifier string) (JoinOutcome, error) {
	ent, err := c.GetEntity(ctx, identifier)
	if errors.Is(err, ErrEntityNotFound) {
		return JoinPrivate, nil
	}
	if err != nil {
		return JoinOtherFailure, err
	}
	if ent.Kind == KindForbidden {
		return JoinPrivate, nil
	}
	if ent.Kind == KindChat && ent.AccessHash == 0 {
		// a basic chat in the dialog list cannot be joined, only invited into
		return JoinAlreadyMember, nil
	}

	if err := c.wait(ctx); err != nil {
		return JoinOtherFailure, err
	}
	api, err := c.API()
	if err != nil {
		return JoinOtherFailure, err
	}

	if _, err := api.ChannelsJoinChannel(ctx, inputChannel(ent)); err != nil {
		c.hold(err)
		return classifyJoinError(err)
	}
	return JoinOK, nil
}

// ImportInvite joins a private entity via its invite hash.
func (c *Client) ImportInvite(ctx context.Context, hash string) (JoinOutcome, error) {
	if err := c.wait(ctx); err != nil {
		return JoinOtherFailure, err
	}
	api, err := c.API()
	if err != nil {
		return JoinOtherFailure, err
	}

	if _, err := api.MessagesImportChatInvite(ctx, hash); err != nil {
		c.hold(err)
		return classifyJoinError(err)
	}
	return JoinOK, nil
}

// CheckInvite classifies an invite hash without joining. A resolvable invite
// yields the permanent marked identifier the caller should adopt in place of
// the hash.
func (c *Client) CheckInvite(ctx context.Context, hash string) (*InviteCheck, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	result, err := api.MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		c.hold(err)
		if tgerr.Is(err, "INVITE_HASH_EXPIRED", "INVITE_HASH_INVALID") {
			return &InviteCheck{Status: InviteExpired}, nil
		}
		return nil, fmt.Errorf("check invite: %w", err)
	}

	switch inv := result.(type) {
	case *tg.ChatInviteAlready:
		return c.inviteResolved(inv.Chat)
	case *tg.ChatInvitePeek:
		return c.inviteResolved(inv.Chat)
	case *tg.ChatInvite:
		// no chat object in this answer, so no permanent id to adopt
		return &InviteCheck{Status: InviteAlreadyMember}, nil
	default:
		return nil, fmt.Errorf("unexpected invite result %T", result)
	}
}

func (c *Client) inviteResolved(chat tg.ChatClass) (*InviteCheck, error) {
	ent := entityFromChat(chat)
	if ent == nil {
		return nil, fmt.Errorf("invite resolved to unsupported chat %T", chat)
	}
	c.cache(ent, "")
	return &InviteCheck{Status: InviteResolvable, Identifier: markedID(ent)}, nil
}

// FullChannelPts fetches the channel's current state counter from the full
// channel metadata. Used to bootstrap and to re-bootstrap the cursor.
func (c *Client) FullChannelPts(ctx context.Context, ent *Entity) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	api, err := c.API()
	if err != nil {
		return 0, err
	}

	full, err := api.ChannelsGetFullChannel(ctx, inputChannel(ent))
	if err != nil {
		c.hold(err)
		return 0, fmt.Errorf("get full channel: %w", err)
	}

	chFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		return 0, fmt.Errorf("unexpected full chat type %T", full.FullChat)
	}
	return int64(chFull.Pts), nil
}

// ChannelDifference requests everything that changed since pts. The filter
// spans the whole message id range and force is set, so the server reports
// pending changes rather than only client-visible history.
func (c *Client) ChannelDifference(ctx context.Context, ent *Entity, pts int64, limit int) (*Difference, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	resp, err := api.UpdatesGetChannelDifference(ctx, &tg.UpdatesGetChannelDifferenceRequest{
		Force:   true,
		Channel: inputChannel(ent),
		Filter: &tg.ChannelMessagesFilter{
			Ranges: []tg.MessageRange{{MinID: 0, MaxID: MaxMessageID}},
		},
		Pts:   int(pts),
		Limit: limit,
	})
	if err != nil {
		c.hold(err)
		return nil, fmt.Errorf("get channel difference: %w", err)
	}

	switch d := resp.(type) {
	case *tg.UpdatesChannelDifferenceEmpty:
		return &Difference{Kind: DifferenceEmpty}, nil
	case *tg.UpdatesChannelDifferenceTooLong:
		return &Difference{Kind: DifferenceTooLong}, nil
	case *tg.UpdatesChannelDifference:
		return &Difference{
			Kind:     DifferenceNew,
			Pts:      int64(d.Pts),
			Messages: differenceMessages(d),
		}, nil
	default:
		return nil, fmt.Errorf("unexpected difference type %T", resp)
	}
}

// History reads up to limit recent messages with ids above minID. A zero
// minID reads the newest window unconditionally.
func (c *Client) History(ctx context.Context, ent *Entity, minID int64, limit int) ([]Message, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(ent),
		MinID: int(minID),
		Limit: limit,
	})
	if err != nil {
		c.hold(err)
		if tgerr.Is(err, "CHANNEL_PRIVATE", "CHAT_ADMIN_REQUIRED") {
			return nil, ErrAccessForbidden
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	return extractMessages(history), nil
}

// ErrAccessForbidden signals the entity denied read access; callers treat it
// as a permanent skip for the pass.
var ErrAccessForbidden = errors.New("access forbidden")

// classifyJoinError maps RPC errors from join/import calls onto outcomes.
func classifyJoinError(err error) (JoinOutcome, error) {
	switch {
	case tgerr.Is(err, "USER_ALREADY_PARTICIPANT"):
		return JoinAlreadyMember, nil
	case tgerr.Is(err, "INVITE_HASH_EXPIRED", "INVITE_HASH_INVALID"):
		return JoinInviteExpired, nil
	case tgerr.Is(err, "CHANNEL_PRIVATE", "CHANNEL_INVALID", "CHANNELS_TOO_MUCH"):
		return JoinPrivate, nil
	default:
		return JoinOtherFailure, err
	}
}
