package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingRequired is returned when the required section is incomplete.
var ErrMissingRequired = errors.New("required settings missing")

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	Required RequiredSettings `mapstructure:"required"`
	General  GeneralSettings  `mapstructure:"general"`
	Users    UserSettings     `mapstructure:"users"`
	Aria2    Aria2Settings    `mapstructure:"aria2"`
	Telegram TelegramSettings `mapstructure:"telegram"`
}

// RequiredSettings must all be filled before the bot starts.
type RequiredSettings struct {
	BotToken string `mapstructure:"bot_token"`
	OwnerID  int64  `mapstructure:"owner_id"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	DownloadDir       string `mapstructure:"download_dir"`
	PixeldrainAPIKey  string `mapstructure:"pixeldrain_api_key"`
	PixeldrainURL     string `mapstructure:"pixeldrain_url"`
	LogRetentionCount int    `mapstructure:"log_retention_count"`
	Theme             int    `mapstructure:"theme"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// UserSettings lists who may talk to the bot besides the owner.
// Both fields are whitespace separated id lists.
type UserSettings struct {
	AuthorizedUsers string `mapstructure:"authorized_users"`
	AuthorizedChats string `mapstructure:"authorized_chats"`
}

// Aria2Settings configures how the download daemon is reached and launched.
type Aria2Settings struct {
	Endpoint       string        `mapstructure:"endpoint"`
	Secret         string        `mapstructure:"secret"`
	Binary         string        `mapstructure:"binary"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	ShutdownOnExit bool          `mapstructure:"shutdown_on_exit"`
}

// TelegramSettings tunes the chat backend.
type TelegramSettings struct {
	APIEndpoint    string  `mapstructure:"api_endpoint"`
	EditsPerSecond float64 `mapstructure:"edits_per_second"`
	MaxUploads     int64   `mapstructure:"max_uploads"`
}

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		General: GeneralSettings{
			DownloadDir:       "downloads",
			PixeldrainURL:     "https://pixeldrain.com",
			LogRetentionCount: 5,
			Theme:             ThemeAdaptive,
		},
		Aria2: Aria2Settings{
			Endpoint:       "http://localhost:6800/jsonrpc",
			Binary:         "aria2c",
			SettleDelay:    2500 * time.Millisecond,
			ShutdownOnExit: true,
		},
		Telegram: TelegramSettings{
			APIEndpoint:    "https://api.telegram.org/bot%s/%s",
			EditsPerSecond: 20,
			MaxUploads:     2,
		},
	}
}

// LoadSettings reads the TOML file at path and applies PDMIRROR_* environment
// overrides on top of the defaults. A missing file is not an error as long as
// the required values arrive through the environment.
func LoadSettings(path string) (*Settings, error) {
	settings, err := ReadSettings(path)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// ReadSettings is LoadSettings without validation, for commands that never
// talk to Telegram.
func ReadSettings(path string) (*Settings, error) {
	v := newViper(DefaultSettings())
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return settings, nil
}

func newViper(defaults *Settings) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PDMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default for AutomaticEnv to see it during Unmarshal.
	v.SetDefault("required.bot_token", defaults.Required.BotToken)
	v.SetDefault("required.owner_id", defaults.Required.OwnerID)
	v.SetDefault("general.download_dir", defaults.General.DownloadDir)
	v.SetDefault("general.pixeldrain_api_key", defaults.General.PixeldrainAPIKey)
	v.SetDefault("general.pixeldrain_url", defaults.General.PixeldrainURL)
	v.SetDefault("general.log_retention_count", defaults.General.LogRetentionCount)
	v.SetDefault("general.theme", defaults.General.Theme)
	v.SetDefault("users.authorized_users", defaults.Users.AuthorizedUsers)
	v.SetDefault("users.authorized_chats", defaults.Users.AuthorizedChats)
	v.SetDefault("aria2.endpoint", defaults.Aria2.Endpoint)
	v.SetDefault("aria2.secret", defaults.Aria2.Secret)
	v.SetDefault("aria2.binary", defaults.Aria2.Binary)
	v.SetDefault("aria2.settle_delay", defaults.Aria2.SettleDelay)
	v.SetDefault("aria2.shutdown_on_exit", defaults.Aria2.ShutdownOnExit)
	v.SetDefault("telegram.api_endpoint", defaults.Telegram.APIEndpoint)
	v.SetDefault("telegram.edits_per_second", defaults.Telegram.EditsPerSecond)
	v.SetDefault("telegram.max_uploads", defaults.Telegram.MaxUploads)
	return v
}

// Validate checks that every required value is present.
func (s *Settings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Required.BotToken) == "" {
		missing = append(missing, "required.bot_token")
	}
	if s.Required.OwnerID == 0 {
		missing = append(missing, "required.owner_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	if _, err := ParseIDs(s.Users.AuthorizedUsers); err != nil {
		return fmt.Errorf("users.authorized_users: %w", err)
	}
	if _, err := ParseIDs(s.Users.AuthorizedChats); err != nil {
		return fmt.Errorf("users.authorized_chats: %w", err)
	}
	return nil
}

// DownloadPath returns the absolute download directory.
func (s *Settings) DownloadPath() string {
	dir := s.General.DownloadDir
	if dir == "" {
		dir = "downloads"
	}
	if !filepath.IsAbs(dir) {
		if wd, err := os.Getwd(); err == nil {
			dir = filepath.Join(wd, dir)
		}
	}
	return dir
}

// ParseIDs splits a whitespace separated list of chat or user ids.
func ParseIDs(raw string) ([]int64, error) {
	fields := strings.Fields(raw)
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
