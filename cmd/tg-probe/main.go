package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/gotd/td/tg"
	"github.com/joho/godotenv"
)

// tg-probe resolves a public handle and prints the raw sync state of the
// channel behind it. Useful when the watcher logs a stale cursor and you want
// to see what the provider currently reports.
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("usage: tg-probe @channel_username")
		fmt.Println("example: tg-probe @durov")
		os.Exit(1)
	}

	username := strings.TrimPrefix(os.Args[1], "@")
	ctx := context.Background()

	apiIDStr := os.Getenv("TG_API_ID")
	apiHash := os.Getenv("TG_API_HASH")
	sessionString := os.Getenv("TG_SESSION_STRING")

	if apiIDStr == "" || apiHash == "" || sessionString == "" {
		fmt.Println("error: missing required environment variables")
		fmt.Println("please set: TG_API_ID, TG_API_HASH, TG_SESSION_STRING")
		os.Exit(1)
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		fmt.Printf("error: invalid TG_API_ID: %v\n", err)
		os.Exit(1)
	}

	client, err := gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(""),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.StringSession(sessionString),
			DisableCopyright: true,
			InMemory:         true, // don't write to disk
		},
	)
	if err != nil {
		fmt.Printf("error creating client: %v\n", err)
		os.Exit(1)
	}
	defer client.Stop()

	fmt.Printf("probing @%s...\n\n", username)

	resolved, err := client.API().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		fmt.Printf("error resolving username: %v\n", err)
		os.Exit(1)
	}

	if len(resolved.Chats) == 0 {
		fmt.Printf("@%s not found\n", username)
		os.Exit(1)
	}

	channel, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		fmt.Printf("@%s is not a channel\n", username)
		os.Exit(1)
	}

	full, err := client.API().ChannelsGetFullChannel(ctx, &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	})
	if err != nil {
		fmt.Printf("error getting channel info: %v\n", err)
		os.Exit(1)
	}

	chFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		fmt.Println("unexpected channel type")
		os.Exit(1)
	}

	kind := "broadcast"
	if channel.Megagroup {
		kind = "megagroup"
	}

	fmt.Printf("title:        %s\n", channel.Title)
	fmt.Printf("kind:         %s\n", kind)
	fmt.Printf("marked id:    -100%d\n", channel.ID)
	fmt.Printf("access hash:  %d\n", channel.AccessHash)
	fmt.Printf("pts:          %d\n", chFull.Pts)
	fmt.Printf("read inbox:   %d\n", chFull.ReadInboxMaxID)
	fmt.Printf("participants: %d\n", chFull.ParticipantsCount)
	fmt.Println()
	fmt.Printf("to monitor this channel: chanctl add @%s\n", username)
}
