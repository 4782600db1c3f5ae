package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("notion-tasks-sync version %s, commit %s, built at %s", version, commit, date)
}

const envPrefix = "TASKSYNC"

type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Google  GoogleConfig  `mapstructure:"google" yaml:"google"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Notion  NotionConfig  `mapstructure:"notion" yaml:"notion"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port" yaml:"port"`
	Host string `mapstructure:"host" yaml:"host"`
	// Origin is the public base URL used for error redirects. Derived from
	// the request when empty.
	Origin       string   `mapstructure:"origin" yaml:"origin"`
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Format            string `mapstructure:"format" yaml:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path" yaml:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file" yaml:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console" yaml:"disable_console"`
}

type GoogleConfig struct {
	ClientID      string   `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURL   string   `mapstructure:"redirect_url" yaml:"redirect_url"`
	AuthURL       string   `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL      string   `mapstructure:"token_url" yaml:"token_url"`
	UserInfoURL   string   `mapstructure:"userinfo_url" yaml:"userinfo_url"`
	TasksEndpoint string   `mapstructure:"tasks_endpoint" yaml:"tasks_endpoint"`
	Scopes        []string `mapstructure:"scopes" yaml:"scopes"`
}

type SessionConfig struct {
	Secret      string        `mapstructure:"secret" yaml:"secret"`
	CookieName  string        `mapstructure:"cookie_name" yaml:"cookie_name"`
	MaxAge      time.Duration `mapstructure:"max_age" yaml:"max_age"`
	SuccessPath string        `mapstructure:"success_path" yaml:"success_path"`
}

type SyncConfig struct {
	// RateLimit is the number of task creations dispatched per Interval.
	RateLimit int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxTasks  int           `mapstructure:"max_tasks" yaml:"max_tasks"`
}

type NotionConfig struct {
	Token             string  `mapstructure:"token" yaml:"token"`
	Endpoint          string  `mapstructure:"endpoint" yaml:"endpoint"`
	TitleProperty     string  `mapstructure:"title_property" yaml:"title_property"`
	DueProperty       string  `mapstructure:"due_property" yaml:"due_property"`
	StatusProperty    string  `mapstructure:"status_property" yaml:"status_property"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// StorageBackend selects where user records live.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageRedis  StorageBackend = "redis"
	StorageS3     StorageBackend = "s3"
	StorageSQLite StorageBackend = "sqlite"
)

type StorageConfig struct {
	Backend StorageBackend `mapstructure:"backend" yaml:"backend"`
	Redis   RedisConfig    `mapstructure:"redis" yaml:"redis"`
	S3      S3Config       `mapstructure:"s3" yaml:"s3"`
	SQLite  SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// InitFlags registers the command line flags understood by Load.
func InitFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to the config file")
	flags.Int("server.port", 8788, "HTTP listen port")
	flags.String("storage.backend", string(StorageMemory), "User record storage (memory|redis|s3|sqlite)")
	flags.String("logging.level", "info", "Log level")
}

func setDefaults() {
	// Keys without a default are invisible to Unmarshal when they only come
	// from the environment, so every env-settable key is registered here.
	for _, key := range []string{
		"server.origin",
		"logging.output_path",
		"google.client_id",
		"google.client_secret",
		"google.redirect_url",
		"google.tasks_endpoint",
		"session.secret",
		"notion.token",
		"notion.endpoint",
		"storage.redis.password",
		"storage.s3.endpoint",
		"storage.s3.access_key",
		"storage.s3.secret_key",
	} {
		viper.SetDefault(key, "")
	}
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.s3.use_ssl", false)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8788)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")

	viper.SetDefault("google.auth_url", "https://accounts.google.com/o/oauth2/v2/auth")
	viper.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	viper.SetDefault("google.userinfo_url", "https://www.googleapis.com/oauth2/v2/userinfo")
	viper.SetDefault("google.scopes", []string{
		"openid",
		"email",
		"profile",
		"https://www.googleapis.com/auth/tasks",
	})

	viper.SetDefault("session.cookie_name", "gtoken")
	viper.SetDefault("session.max_age", time.Hour)
	viper.SetDefault("session.success_path", "/#start-sync")

	viper.SetDefault("sync.rate_limit", 3)
	viper.SetDefault("sync.interval", time.Second)
	viper.SetDefault("sync.max_tasks", 100)

	viper.SetDefault("notion.title_property", "Name")
	viper.SetDefault("notion.due_property", "Due")
	viper.SetDefault("notion.status_property", "Status")
	viper.SetDefault("notion.requests_per_second", 3.0)
	viper.SetDefault("notion.burst", 1)

	viper.SetDefault("storage.backend", string(StorageMemory))
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.s3.bucket", "notion-tasks-sync")
	viper.SetDefault("storage.sqlite.path", "./data/users.db")
}

// Load reads configuration from defaults, config file, environment and flags,
// in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	viper.Reset() // Ensure clean state
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if flags != nil {
		if err := viper.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/notion-tasks-sync")

		// Env and defaults are enough to run, the file is optional
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Google.ClientID == "" {
		missing = append(missing, "google.client_id")
	}
	if c.Google.ClientSecret == "" {
		missing = append(missing, "google.client_secret")
	}
	if c.Google.RedirectURL == "" {
		missing = append(missing, "google.redirect_url")
	}
	if c.Session.Secret == "" {
		missing = append(missing, "session.secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings %s, please adjust the config or set the %s_* environment variables",
			strings.Join(missing, ", "), envPrefix)
	}

	if c.Sync.RateLimit < 1 {
		return fmt.Errorf("sync.rate_limit must be at least 1, got %d", c.Sync.RateLimit)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Sync.MaxTasks < 1 || c.Sync.MaxTasks > 100 {
		return fmt.Errorf("sync.max_tasks must be between 1 and 100, got %d", c.Sync.MaxTasks)
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageRedis, StorageS3, StorageSQLite:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Google.ClientSecret = mask(c.Google.ClientSecret)
	c.Session.Secret = mask(c.Session.Secret)
	c.Notion.Token = mask(c.Notion.Token)
	c.Storage.Redis.Password = mask(c.Storage.Redis.Password)
	c.Storage.S3.SecretKey = mask(c.Storage.S3.SecretKey)
	return c
}
