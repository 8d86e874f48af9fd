package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedEntry struct {
	Identifier string `yaml:"identifier"`
	Title      string `yaml:"title"`
}

type seedFile struct {
	Channels []seedEntry `yaml:"channels"`
}

// validate-seed checks chanctl seed files before they reach the database.
// Meant to run from a pre-commit hook or CI.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("No files to check.")
		os.Exit(0)
	}

	failed := false
	for _, path := range os.Args[1:] {
		if err := validate(path); err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("✅ %s is valid\n", path)
	}

	if failed {
		os.Exit(1)
	}
}

func validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	if len(file.Channels) == 0 {
		return fmt.Errorf("no channels listed")
	}

	seen := make(map[string]bool, len(file.Channels))
	for i, entry := range file.Channels {
		if entry.Identifier == "" {
			return fmt.Errorf("entry %d has no identifier", i+1)
		}
		if seen[entry.Identifier] {
			return fmt.Errorf("duplicate identifier %q", entry.Identifier)
		}
		seen[entry.Identifier] = true
	}
	return nil
}
