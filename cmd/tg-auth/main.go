package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session/tdesktop"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("=== chanwatch auth tool ===")
	fmt.Println("generates the telegram session string the watcher runs with")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	apiID, apiHash := getAPICredentials(reader)

	accounts, tdataErr := tdesktop.Read(telegramDesktopPath(), nil)

	var client *gotgproto.Client
	var err error

	if tdataErr == nil && len(accounts) > 0 {
		fmt.Printf("detected %d telegram desktop session(s)\n", len(accounts))
		fmt.Print("use the desktop session instead of phone auth? [Y/n]: ")
		choice, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(choice)) != "n" {
			client, err = authWithTData(apiID, apiHash, accounts[0])
		} else {
			client, err = authWithPhone(apiID, apiHash, reader)
		}
	} else {
		fmt.Println("no telegram desktop session found, using phone auth")
		client, err = authWithPhone(apiID, apiHash, reader)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer client.Stop()

	sessionString, err := client.ExportStringSession()
	if err != nil {
		fmt.Printf("error exporting session: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✓ authentication successful!")
	fmt.Printf("logged in as: @%s\n", client.Self.Username)
	fmt.Println("\nyour session string:")
	fmt.Println("---")
	fmt.Println(sessionString)
	fmt.Println("---")
	fmt.Println("\nadd this to your .env file as TG_SESSION_STRING")
	fmt.Println("\n⚠️  keep this secret! it provides full access to your telegram account")
}

// telegramDesktopPath returns the platform default tdata directory.
func telegramDesktopPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Telegram Desktop", "tdata")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Telegram Desktop", "tdata")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "TelegramDesktop", "tdata")
	}
}

// getAPICredentials reads API ID and Hash from env or prompts for them.
func getAPICredentials(reader *bufio.Reader) (int, string) {
	apiIDStr := os.Getenv("TG_API_ID")
	apiHash := os.Getenv("TG_API_HASH")

	if apiIDStr == "" {
		fmt.Print("enter your api_id (from https://my.telegram.org): ")
		apiIDStr, _ = reader.ReadString('\n')
		apiIDStr = strings.TrimSpace(apiIDStr)
	}
	if apiHash == "" {
		fmt.Print("enter your api_hash: ")
		apiHash, _ = reader.ReadString('\n')
		apiHash = strings.TrimSpace(apiHash)
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		fmt.Printf("error: invalid api_id: %v\n", err)
		os.Exit(1)
	}

	return apiID, apiHash
}

func authWithTData(apiID int, apiHash string, account tdesktop.Account) (*gotgproto.Client, error) {
	fmt.Println("\nauthenticating with telegram desktop session...")

	return gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(""),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.TdataSession(account).Name("tdata_session"),
			DisableCopyright: true,
		},
	)
}

func authWithPhone(apiID int, apiHash string, reader *bufio.Reader) (*gotgproto.Client, error) {
	fmt.Print("enter your phone number (with country code, e.g. +1234567890): ")
	phone, _ := reader.ReadString('\n')
	phone = strings.TrimSpace(phone)

	fmt.Println("\nauthenticating... (check telegram for code)")

	client, err := gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open("tg_session")),
			DisableCopyright: true,
		},
	)

	if err == nil {
		fmt.Println("\nnote: tg_session.db was created for temporary storage.")
		fmt.Println("you can delete it after copying the session string.")
	}

	return client, err
}
