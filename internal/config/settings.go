package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"ipdnb/internal/support"
)

const (
	ProviderIPLocate = "iplocate"
	ProviderGeoLite  = "geolite"
)

type Settings struct {
	Lookup struct {
		Provider string `json:"provider"`
		BaseURL  string `json:"base_url"`
		// APIKey never comes from a settings file.
		APIKey           string `json:"-"`
		Timeout          Timer  `json:"timeout"`
		Proxy            string `json:"proxy"`
		CacheTTL         Timer  `json:"cache_ttl"`
		GeoLiteCountryDB string `json:"geolite_country_db"`
	} `json:"lookup"`

	Policy struct {
		BlockedCountries []string `json:"blocked_countries"`
		BlockTor         bool     `json:"block_tor"`
	} `json:"policy"`

	Store struct {
		Driver string `json:"driver"`
		Path   string `json:"path"`
		DSN    string `json:"dsn"`
	} `json:"store"`

	RedisURL string `json:"redis_url"`
	LogLevel string `json:"log_level"`
}

//go:embed default_settings.json
var defaultSettings []byte

var ErrMissingAPIKey = errors.New("config: IPLOCATE_API_KEY is not set")

// Defaults returns the embedded default settings.
func Defaults() (Settings, error) {
	var s Settings
	if err := json.Unmarshal(defaultSettings, &s); err != nil {
		return Settings{}, fmt.Errorf("config: decode default settings: %w", err)
	}
	return s, nil
}

// Load builds the settings from the embedded defaults, an optional JSON file
// named by SETTINGS_FILE, and environment overrides, in that order. It does
// not validate; commands that perform lookups call Validate.
func Load() (Settings, error) {
	s, err := Defaults()
	if err != nil {
		return Settings{}, err
	}

	if path := support.GetEnv("SETTINGS_FILE", ""); path != "" {
		if err := s.mergeFile(path); err != nil {
			return Settings{}, err
		}
		log.Debug("Settings file loaded", "path", path)
	}

	s.applyEnv()
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read settings file: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("config: decode settings file %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyEnv() {
	s.Lookup.APIKey = support.GetEnv("IPLOCATE_API_KEY", s.Lookup.APIKey)
	s.Lookup.Provider = support.GetEnv("LOOKUP_PROVIDER", s.Lookup.Provider)
	s.Lookup.BaseURL = support.GetEnv("IPLOCATE_BASE_URL", s.Lookup.BaseURL)
	s.Lookup.Proxy = support.GetEnv("LOOKUP_PROXY", s.Lookup.Proxy)
	s.Lookup.GeoLiteCountryDB = support.GetEnv("GEOLITE_COUNTRY_DB", s.Lookup.GeoLiteCountryDB)

	if seconds := support.GetEnvInt("LOOKUP_TIMEOUT_SECONDS", -1); seconds >= 0 {
		s.Lookup.Timeout = Timer{Seconds: uint32(seconds)}
	}
	if minutes := support.GetEnvInt("LOOKUP_CACHE_TTL_MINUTES", -1); minutes >= 0 {
		s.Lookup.CacheTTL = Timer{Minutes: uint32(minutes)}
	}

	s.Policy.BlockedCountries = support.GetEnvList("BLOCKED_COUNTRIES", s.Policy.BlockedCountries)
	s.Policy.BlockTor = support.GetEnvBool("BLOCK_TOR", s.Policy.BlockTor)

	s.Store.Driver = support.GetEnv("STORE_DRIVER", s.Store.Driver)
	s.Store.Path = support.GetEnv("STORE_PATH", s.Store.Path)
	s.Store.DSN = support.GetEnv("STORE_DSN", s.Store.DSN)

	s.RedisURL = support.GetEnv("REDIS_URL", s.RedisURL)
	s.LogLevel = support.GetEnv("LOG_LEVEL", s.LogLevel)
}

// Validate checks that the selected lookup provider has what it needs.
func (s Settings) Validate() error {
	switch strings.ToLower(s.Lookup.Provider) {
	case ProviderIPLocate:
		if strings.TrimSpace(s.Lookup.APIKey) == "" {
			return ErrMissingAPIKey
		}
		if s.Lookup.BaseURL == "" {
			return errors.New("config: lookup base_url is empty")
		}
	case ProviderGeoLite:
		if s.Lookup.GeoLiteCountryDB == "" {
			return errors.New("config: GEOLITE_COUNTRY_DB is required for the geolite provider")
		}
	default:
		return fmt.Errorf("config: unknown lookup provider %q", s.Lookup.Provider)
	}
	return nil
}

// Level resolves LogLevel, falling back to info.
func (s Settings) Level() log.Level {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
