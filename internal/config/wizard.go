package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// DefaultConfigFile is where the wizard writes its result.
const DefaultConfigFile = ".sentencehub.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .sentencehub.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to sentencehub! Let's configure your installation.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. MongoDB connection.
	uriPrompt := promptui.Prompt{
		Label:   "MongoDB URI",
		Default: cfg.MongoURI,
	}
	uri, err := uriPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mongo uri prompt: %w", err)
	}
	cfg.MongoURI = uri

	dbPrompt := promptui.Prompt{
		Label:   "Database name",
		Default: cfg.Database,
	}
	database, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database prompt: %w", err)
	}
	cfg.Database = database

	// 2. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "API port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			p, err := strconv.Atoi(s)
			if err != nil || p <= 0 || p > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 3. Default collation locale.
	localePrompt := promptui.Select{
		Label: "Default locale for text collation",
		Items: []string{"en", "fr", "de", "es", "it", "pt", "nl"},
	}
	_, locale, err := localePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("locale selection: %w", err)
	}
	cfg.DefaultLocale = locale

	// 4. Inbox sentence expiry.
	ttlPrompt := promptui.Prompt{
		Label:   "Inbox sentence TTL in days (-1 to keep forever)",
		Default: strconv.Itoa(cfg.SentenceTTLDays),
		Validate: func(s string) error {
			d, err := strconv.Atoi(s)
			if err != nil || d < -1 {
				return fmt.Errorf("ttl must be -1 or a non-negative number of days")
			}
			return nil
		},
	}
	ttlStr, err := ttlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ttl prompt: %w", err)
	}
	cfg.SentenceTTLDays, _ = strconv.Atoi(ttlStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultConfigFile); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s\n", DefaultConfigFile)
	return cfg, nil
}
