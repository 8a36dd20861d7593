package config

// Config is the top-level sentencehub configuration, corresponding to
// .sentencehub.yml.
type Config struct {
	MongoURI string `yaml:"mongo_uri" koanf:"mongo_uri"`
	Database string `yaml:"database" koanf:"database"`
	Port     int    `yaml:"port" koanf:"port"`
	// AllowAllCORS opens the API to any origin (dev mode).
	AllowAllCORS bool `yaml:"allow_all_cors" koanf:"allow_all_cors"`
	// DefaultLocale is used for text collation when a search carries no
	// language.
	DefaultLocale string `yaml:"default_locale" koanf:"default_locale"`
	// SentenceTTLDays expires inbox sentences this many days after their
	// last update. -1 disables expiry.
	SentenceTTLDays int `yaml:"sentence_ttl_days" koanf:"sentence_ttl_days"`
}
