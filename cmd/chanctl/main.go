package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/chanwatch/chanwatch/internal/config"
	"github.com/chanwatch/chanwatch/internal/database"
	"github.com/chanwatch/chanwatch/internal/repository"
)

const usage = `usage: chanctl <command> [args]

commands:
  seed <file.yaml>       upsert monitored entities from a yaml file
  list                   print the monitored entity set
  add <identifier> [title]   add one entity (@handle, -100... id, or invite hash)
  remove <identifier>    remove one entity
`

type seedEntry struct {
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title"`
}

type seedFile struct {
	Channels []seedEntry `yaml:"channels"`
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("error: load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Printf("error: connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewChannelsRepository(db.Pool)

	switch os.Args[1] {
	case "seed":
		if len(os.Args) < 3 {
			fmt.Println("usage: chanctl seed <file.yaml>")
			os.Exit(1)
		}
		err = seed(ctx, repo, os.Args[2])
	case "list":
		err = list(ctx, repo)
	case "add":
		if len(os.Args) < 3 {
			fmt.Println("usage: chanctl add <identifier> [title]")
			os.Exit(1)
		}
		title := ""
		if len(os.Args) > 3 {
			title = os.Args[3]
		}
		err = add(ctx, repo, os.Args[2], title)
	case "remove":
		if len(os.Args) < 3 {
			fmt.Println("usage: chanctl remove <identifier>")
			os.Exit(1)
		}
		err = remove(ctx, repo, os.Args[2])
	default:
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func seed(ctx context.Context, repo *repository.ChannelsRepository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("invalid yaml in %s: %w", path, err)
	}
	if len(file.Channels) == 0 {
		return fmt.Errorf("%s lists no channels", path)
	}

	var added, updated int
	for _, entry := range file.Channels {
		if entry.Identifier == "" {
			return fmt.Errorf("%s contains an entry without an identifier", path)
		}
		ch := repository.MonitoredChannel{Identifier: entry.Identifier, Title: entry.Title}
		created, err := repo.Upsert(ctx, &ch)
		if err != nil {
			return err
		}
		if created {
			added++
			fmt.Printf("+ %s\n", entry.Identifier)
		} else {
			updated++
		}
	}

	fmt.Printf("seeded: %d added, %d already present\n", added, updated)
	return nil
}

func list(ctx context.Context, repo *repository.ChannelsRepository) error {
	channels, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("no monitored entities")
		return nil
	}

	for _, ch := range channels {
		kind := "entity"
		if ch.IsInvite() {
			kind = "invite"
		}
		title := ch.Title
		if title == "" {
			title = "-"
		}
		fmt.Printf("%-36s  %-8s  %s\n", ch.Identifier, kind, title)
	}
	return nil
}

func add(ctx context.Context, repo *repository.ChannelsRepository, identifier, title string) error {
	ch := repository.MonitoredChannel{Identifier: identifier, Title: title}
	created, err := repo.Upsert(ctx, &ch)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("added %s\n", identifier)
	} else {
		fmt.Printf("%s was already monitored\n", identifier)
	}
	return nil
}

func remove(ctx context.Context, repo *repository.ChannelsRepository, identifier string) error {
	removed, err := repo.DeleteByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not monitored", identifier)
	}
	fmt.Printf("removed %s\n", identifier)
	return nil
}
