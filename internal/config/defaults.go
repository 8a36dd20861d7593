package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MongoURI:        "mongodb://localhost:27017",
		Database:        "sentencehub",
		Port:            8087,
		DefaultLocale:   "en",
		SentenceTTLDays: -1,
	}
}
