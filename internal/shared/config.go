package shared

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Names used when no destination playlist name is configured.
const (
	DefaultPlaylistName   = "Minha Playlist Sincronizada"
	DefaultPlaylistNameEN = "My Synced Playlist"
)

var channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sync        SyncConfig        `toml:"sync"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// SyncConfig describes which channel is copied into which playlist.
type SyncConfig struct {
	ChannelID             string        `toml:"channel_id"`
	PlaylistID            string        `toml:"playlist_id"`
	PlaylistName          string        `toml:"playlist_name"`
	PlaylistNameEN        string        `toml:"playlist_name_en"`
	PageInterval          time.Duration `toml:"page_interval"`
	OwnedPageInterval     time.Duration `toml:"owned_page_interval"`
	ItemInterval          time.Duration `toml:"item_interval"`
	EscalatedItemInterval time.Duration `toml:"escalated_item_interval"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains the OAuth client registered in Google Cloud Console.
type YouTubeConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncSettings is the immutable input of a single sync run.
type SyncSettings struct {
	ChannelID      string
	PlaylistID     string
	PlaylistName   string
	PlaylistNameEN string
	ClientID       string
	ClientSecret   string
}

// ConfigError reports a missing or malformed setting along with how to fix it.
type ConfigError struct {
	Key  string
	Hint string
	err  error
}

// NewConfigError creates a [ConfigError] for key wrapping err.
func NewConfigError(key, hint string, err error) *ConfigError {
	return &ConfigError{Key: key, Hint: hint, err: err}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s (%s)", e.err, e.Key, e.Hint)
}

func (e *ConfigError) Unwrap() error {
	return e.err
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values with YTSYNC_* environment variables.
func (c *Config) ApplyEnv() {
	strs := []struct {
		key    string
		target *string
	}{
		{"YTSYNC_CHANNEL_ID", &c.Sync.ChannelID},
		{"YTSYNC_PLAYLIST_ID", &c.Sync.PlaylistID},
		{"YTSYNC_PLAYLIST_NAME", &c.Sync.PlaylistName},
		{"YTSYNC_PLAYLIST_NAME_EN", &c.Sync.PlaylistNameEN},
		{"YTSYNC_CLIENT_ID", &c.Credentials.YouTube.ClientID},
		{"YTSYNC_CLIENT_SECRET", &c.Credentials.YouTube.ClientSecret},
		{"YTSYNC_REDIRECT_URL", &c.Credentials.YouTube.RedirectURL},
		{"YTSYNC_DATABASE_PATH", &c.Database.Path},
		{"YTSYNC_SERVER_HOST", &c.Server.Host},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.key); ok && v != "" {
			*s.target = v
		}
	}

	if v := os.Getenv("YTSYNC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings a sync run cannot start without.
func (c *Config) Validate() error {
	if c.Sync.ChannelID == "" {
		return &ConfigError{Key: "sync.channel_id", Hint: "set channel_id in config.toml or YTSYNC_CHANNEL_ID", err: ErrMissingConfig}
	}
	if !ValidChannelID(c.Sync.ChannelID) {
		return &ConfigError{Key: "sync.channel_id", Hint: "expected UC followed by 22 characters", err: ErrInvalidConfig}
	}
	return c.ValidateCredentials()
}

// ValidateCredentials checks only the OAuth client settings.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.YouTube.ClientID == "" {
		return &ConfigError{Key: "credentials.youtube.client_id", Hint: "set client_id or YTSYNC_CLIENT_ID", err: ErrMissingCredentials}
	}
	if c.Credentials.YouTube.ClientSecret == "" {
		return &ConfigError{Key: "credentials.youtube.client_secret", Hint: "set client_secret or YTSYNC_CLIENT_SECRET", err: ErrMissingCredentials}
	}
	return nil
}

// Settings resolves the configuration into the settings of one run.
//
// Empty playlist names fall back to the built-in defaults.
func (c *Config) Settings() SyncSettings {
	s := SyncSettings{
		ChannelID:      c.Sync.ChannelID,
		PlaylistID:     c.Sync.PlaylistID,
		PlaylistName:   c.Sync.PlaylistName,
		PlaylistNameEN: c.Sync.PlaylistNameEN,
		ClientID:       c.Credentials.YouTube.ClientID,
		ClientSecret:   c.Credentials.YouTube.ClientSecret,
	}
	if s.PlaylistName == "" {
		s.PlaylistName = DefaultPlaylistName
	}
	if s.PlaylistNameEN == "" {
		s.PlaylistNameEN = DefaultPlaylistNameEN
	}
	return s
}

// Validate checks a resolved [SyncSettings] before any network call.
func (s SyncSettings) Validate() error {
	if !ValidChannelID(s.ChannelID) {
		return &ConfigError{Key: "sync.channel_id", Hint: "expected UC followed by 22 characters", err: ErrInvalidConfig}
	}
	if s.ClientID == "" || s.ClientSecret == "" {
		return &ConfigError{Key: "credentials.youtube", Hint: "client_id and client_secret are required", err: ErrMissingCredentials}
	}
	return nil
}

// ValidChannelID reports whether id has the shape of a channel identifier.
func ValidChannelID(id string) bool {
	return channelIDPattern.MatchString(id)
}
