package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database    DatabaseConfig
	Identity    IdentityConfig
	Redis       RedisConfig
	Routes      RoutesConfig
	UI          UIConfig
	Log         LogConfig
	Diagnostics DiagnosticsConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// IdentityConfig selects and tunes the identity provider.
type IdentityConfig struct {
	// Provider is "local" or "redis".
	Provider       string
	TokenSecret    string        `mapstructure:"token_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	SignInRate     float64       `mapstructure:"signin_rate"`
	SignOutTimeout time.Duration `mapstructure:"signout_timeout"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	Key      string
}

type RoutesConfig struct {
	SignInPath  string `mapstructure:"sign_in_path"`
	DefaultPath string `mapstructure:"default_path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	AppName          string `mapstructure:"app_name"`
	SidebarCollapsed bool   `mapstructure:"sidebar_collapsed"`
}

type LogConfig struct {
	Path  string
	Level string
}

type DiagnosticsConfig struct {
	// Addr is empty when diagnostics are off.
	Addr string
}

// Path is where Load looks for the config file and Save writes it.
func Path() string {
	if p := os.Getenv("IDEACROWD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "ideacrowd", "config.toml")
}

func defaults(v *viper.Viper) {
	share := filepath.Join(os.Getenv("HOME"), ".local", "share", "ideacrowd")
	v.SetDefault("database.path", filepath.Join(share, "ideacrowd.db"))
	v.SetDefault("identity.provider", "local")
	v.SetDefault("identity.token_secret", "")
	v.SetDefault("identity.session_ttl", "168h")
	v.SetDefault("identity.signin_rate", 10.0)
	v.SetDefault("identity.signout_timeout", "10s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "ideacrowd:session:events")
	v.SetDefault("redis.key", "ideacrowd:session")
	v.SetDefault("routes.sign_in_path", "/sign-in")
	v.SetDefault("routes.default_path", "/")
	v.SetDefault("ui.app_name", "IdeaCrowd")
	v.SetDefault("ui.sidebar_collapsed", false)
	v.SetDefault("log.path", filepath.Join(share, "ideacrowd.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("diagnostics.addr", "")
}

// Load reads configuration from file and env. Env var overrides use prefix IDEACROWD_.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigType("toml")
	if p := os.Getenv("IDEACROWD_CONFIG"); p != "" {
		v.SetConfigFile(p)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ideacrowd"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("IDEACROWD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Identity.Provider {
	case "local", "redis":
	default:
		return fmt.Errorf("identity.provider: unknown provider %q", c.Identity.Provider)
	}
	if c.Identity.SessionTTL <= 0 {
		return fmt.Errorf("identity.session_ttl must be positive")
	}
	if !strings.HasPrefix(c.Routes.SignInPath, "/") || !strings.HasPrefix(c.Routes.DefaultPath, "/") {
		return fmt.Errorf("routes: paths must start with /")
	}
	return nil
}

// SaveSidebarCollapsed records the collapsed flag in the config file.
// Only that key changes: the file is re-read without env overrides so
// values that came from the environment never reach disk, and every other
// key in the file is written back as it was.
func SaveSidebarCollapsed(collapsed bool) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set("ui.sidebar_collapsed", collapsed)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
