package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tg"
)

// entityFromChat maps a raw chat object onto the tagged Entity variant.
// Returns nil for chat classes we never monitor (empty stubs).
func entityFromChat(chat tg.ChatClass) *Entity {
	switch c := chat.(type) {
	case *tg.Channel:
		kind := KindChat
		if c.Broadcast && !c.Megagroup {
			kind = KindBroadcast
		}
		return &Entity{
			Kind:       kind,
			ID:         c.ID,
			AccessHash: c.AccessHash,
			Megagroup:  c.Megagroup,
			Title:      c.Title,
		}
	case *tg.Chat:
		return &Entity{
			Kind:  KindChat,
			ID:    c.ID,
			Title: c.Title,
		}
	case *tg.ChannelForbidden:
		return &Entity{Kind: KindForbidden, ID: c.ID, AccessHash: c.AccessHash, Title: c.Title}
	case *tg.ChatForbidden:
		return &Entity{Kind: KindForbidden, ID: c.ID, Title: c.Title}
	default:
		return nil
	}
}

// markedID renders the bot-API style negative identifier: basic chats get a
// plain minus prefix, channel-backed entities the -100 prefix.
func markedID(ent *Entity) string {
	if ent.AccessHash != 0 || ent.Kind == KindBroadcast || ent.Megagroup {
		return fmt.Sprintf("-100%d", ent.ID)
	}
	return fmt.Sprintf("-%d", ent.ID)
}

// parseMarkedID reverses markedID. The bool reports whether the identifier
// refers to a channel-backed entity.
func parseMarkedID(identifier string) (int64, bool, error) {
	if rest, ok := strings.CutPrefix(identifier, "-100"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse channel id %q: %w", identifier, err)
		}
		return id, true, nil
	}
	if rest, ok := strings.CutPrefix(identifier, "-"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse chat id %q: %w", identifier, err)
		}
		return id, false, nil
	}
	return 0, false, fmt.Errorf("not a numeric identifier: %q", identifier)
}

// inputChannel builds the input reference for channel-level RPCs.
func inputChannel(ent *Entity) *tg.InputChannel {
	return &tg.InputChannel{ChannelID: ent.ID, AccessHash: ent.AccessHash}
}

// inputPeer builds the history peer for the entity: basic chats address by id,
// everything channel-backed needs the access hash.
func inputPeer(ent *Entity) tg.InputPeerClass {
	if ent.Kind == KindBroadcast || ent.Megagroup || ent.AccessHash != 0 {
		return &tg.InputPeerChannel{ChannelID: ent.ID, AccessHash: ent.AccessHash}
	}
	return &tg.InputPeerChat{ChatID: ent.ID}
}

// messageFromClass converts a raw message, returning nil for service messages
// and empty stubs.
func messageFromClass(msg tg.MessageClass) *Message {
	m, ok := msg.(*tg.Message)
	if !ok {
		return nil
	}
	return &Message{
		ID:   int64(m.ID),
		Text: m.Message,
		Date: time.Unix(int64(m.Date), 0),
	}
}

// extractMessages flattens a history response into Messages.
func extractMessages(history tg.MessagesMessagesClass) []Message {
	var raw []tg.MessageClass
	switch h := history.(type) {
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	}

	var messages []Message
	for _, msg := range raw {
		if m := messageFromClass(msg); m != nil {
			messages = append(messages, *m)
		}
	}
	return messages
}

// differenceMessages collects the primary message list plus message payloads
// embedded in the auxiliary updates of a difference response.
func differenceMessages(d *tg.UpdatesChannelDifference) []Message {
	var messages []Message
	for _, msg := range d.NewMessages {
		if m := messageFromClass(msg); m != nil {
			messages = append(messages, *m)
		}
	}
	for _, upd := range d.OtherUpdates {
		var payload tg.MessageClass
		switch u := upd.(type) {
		case *tg.UpdateNewChannelMessage:
			payload = u.Message
		case *tg.UpdateEditChannelMessage:
			payload = u.Message
		default:
			continue
		}
		if m := messageFromClass(payload); m != nil {
			messages = append(messages, *m)
		}
	}
	return messages
}
