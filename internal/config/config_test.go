package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("got mongo_uri %q", cfg.MongoURI)
	}
	if cfg.Port != 8087 {
		t.Errorf("got port %d, want 8087", cfg.Port)
	}
	if cfg.SentenceTTLDays != -1 {
		t.Errorf("got ttl %d, want -1", cfg.SentenceTTLDays)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sentencehub.yml")
	content := `mongo_uri: mongodb://db.internal:27017
database: bots
port: 9000
default_locale: fr
sentence_ttl_days: 30
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MongoURI != "mongodb://db.internal:27017" || cfg.Database != "bots" {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Port != 9000 || cfg.DefaultLocale != "fr" || cfg.SentenceTTLDays != 30 {
		t.Errorf("got %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sentencehub.yml")
	if err := os.WriteFile(path, []byte("database: from_file\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SENTENCEHUB_DATABASE", "from_env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "from_env" {
		t.Errorf("got database %q, want env override", cfg.Database)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".sentencehub.yml")

	cfg := DefaultConfig()
	cfg.Database = "roundtrip"
	cfg.SentenceTTLDays = 7
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Database != "roundtrip" || back.SentenceTTLDays != 7 {
		t.Errorf("got %+v", back)
	}
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	if err := valid.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad uri scheme", func(c *Config) { c.MongoURI = "http://localhost" }},
		{"empty uri", func(c *Config) { c.MongoURI = "" }},
		{"empty database", func(c *Config) { c.Database = "" }},
		{"port too low", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"empty locale", func(c *Config) { c.DefaultLocale = "" }},
		{"ttl below sentinel", func(c *Config) { c.SentenceTTLDays = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
