package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityFromChat(t *testing.T) {
	tests := []struct {
		name string
		chat tg.ChatClass
		want EntityKind
	}{
		{
			name: "broadcast channel",
			chat: &tg.Channel{ID: 100, AccessHash: 7, Broadcast: true, Title: "news"},
			want: KindBroadcast,
		},
		{
			name: "megagroup is a chat",
			chat: &tg.Channel{ID: 200, AccessHash: 8, Megagroup: true, Title: "group"},
			want: KindChat,
		},
		{
			name: "basic chat",
			chat: &tg.Chat{ID: 300, Title: "old group"},
			want: KindChat,
		},
		{
			name: "forbidden channel",
			chat: &tg.ChannelForbidden{ID: 400, AccessHash: 9},
			want: KindForbidden,
		},
		{
			name: "forbidden chat",
			chat: &tg.ChatForbidden{ID: 500},
			want: KindForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := entityFromChat(tt.chat)
			require.NotNil(t, ent)
			assert.Equal(t, tt.want, ent.Kind)
		})
	}
}

func TestEntityFromChat_Empty(t *testing.T) {
	assert.Nil(t, entityFromChat(&tg.ChatEmpty{ID: 1}))
}

func TestMarkedIDRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		ent       *Entity
		want      string
		isChannel bool
	}{
		{
			name:      "channel gets -100 prefix",
			ent:       &Entity{Kind: KindBroadcast, ID: 123456, AccessHash: 7},
			want:      "-100123456",
			isChannel: true,
		},
		{
			name:      "supergroup gets -100 prefix",
			ent:       &Entity{Kind: KindChat, ID: 777, AccessHash: 5, Megagroup: true},
			want:      "-100777",
			isChannel: true,
		},
		{
			name:      "basic chat gets plain minus",
			ent:       &Entity{Kind: KindChat, ID: 987654},
			want:      "-987654",
			isChannel: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marked := markedID(tt.ent)
			assert.Equal(t, tt.want, marked)

			id, isChannel, err := parseMarkedID(marked)
			require.NoError(t, err)
			assert.Equal(t, tt.ent.ID, id)
			assert.Equal(t, tt.isChannel, isChannel)
		})
	}
}

func TestParseMarkedID_Invalid(t *testing.T) {
	for _, ident := range []string{"@handle", "abcdef", "-12x4", "-100abc"} {
		_, _, err := parseMarkedID(ident)
		assert.Error(t, err, "identifier %q", ident)
	}
}

func TestExtractMessages_SkipsServiceMessages(t *testing.T) {
	history := &tg.MessagesChannelMessages{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 51, Message: "hello", Date: 1700000000},
			&tg.MessageService{ID: 52},
			&tg.MessageEmpty{ID: 53},
			&tg.Message{ID: 54, Message: "world", Date: 1700000100},
		},
	}

	got := extractMessages(history)
	require.Len(t, got, 2)
	assert.Equal(t, int64(51), got[0].ID)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, int64(54), got[1].ID)
}

func TestDifferenceMessages_IncludesAuxUpdates(t *testing.T) {
	diff := &tg.UpdatesChannelDifference{
		Pts: 105,
		NewMessages: []tg.MessageClass{
			&tg.Message{ID: 101, Message: "primary"},
		},
		OtherUpdates: []tg.UpdateClass{
			&tg.UpdateNewChannelMessage{Message: &tg.Message{ID: 102, Message: "aux new"}},
			&tg.UpdateEditChannelMessage{Message: &tg.Message{ID: 103, Message: "aux edit"}},
			&tg.UpdateChannelTooLong{},
		},
	}

	got := differenceMessages(diff)
	require.Len(t, got, 3)
	assert.Equal(t, int64(101), got[0].ID)
	assert.Equal(t, int64(102), got[1].ID)
	assert.Equal(t, int64(103), got[2].ID)
}
