package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sethvargo/go-envconfig"
)

// AppConfig holds file and environment driven configuration values.
// Secrets have no defaults and must come from config.json or the environment.
type AppConfig struct {
	AppPort string `env:"APP_PORT, overwrite, default=8080"`
	GinMode string `env:"GIN_MODE, overwrite, default=release"`
	GinPath string `env:"GIN_PATH, overwrite, default=logs/gin.log"`

	// Database. DatabaseURI wins over the discrete parts when set.
	DBDriver    string `env:"DB_DRIVER, overwrite, default=mysql"`
	DatabaseURI string `env:"DATABASE_URI, overwrite"`
	DBHost      string `env:"DB_HOST, overwrite, default=127.0.0.1"`
	DBPort      string `env:"DB_PORT, overwrite, default=3306"`
	DBUser      string `env:"DB_USER, overwrite"`
	DBPassword  string `env:"DB_PASSWORD, overwrite"`
	DBName      string `env:"DB_NAME, overwrite, default=gomc"`

	// Redis is optional; an empty host disables it and in-memory fallbacks are used.
	RedisHost     string `env:"REDIS_HOST, overwrite"`
	RedisPort     int    `env:"REDIS_PORT, overwrite, default=6379"`
	RedisDB       int    `env:"REDIS_DB, overwrite"`
	RedisPassword string `env:"REDIS_PASSWORD, overwrite"`

	LogLevel      string `env:"LOG_LEVEL, overwrite, default=info"`
	LogPath       string `env:"LOG_PATH, overwrite, default=logs/gomc.website.log"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB, overwrite, default=100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS, overwrite, default=3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS, overwrite, default=7"`
	LogCompress   bool   `env:"LOG_COMPRESS, overwrite"`

	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS, overwrite, default=*"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE, overwrite, default=30"`

	// Admin sessions
	SessionTTLHours           int    `env:"SESSION_TTL_HOURS, overwrite, default=72"`
	SessionCleanupMinutes     int    `env:"SESSION_CLEANUP_MINUTES, overwrite, default=30"`
	LoginCaptchaAfter         int    `env:"LOGIN_CAPTCHA_AFTER, overwrite, default=3"`
	LoginFailureWindowMinutes int    `env:"LOGIN_FAILURE_WINDOW_MINUTES, overwrite, default=15"`
	AdminEmail                string `env:"ADMIN_EMAIL, overwrite"`
	AdminPassword             string `env:"ADMIN_PASSWORD, overwrite"`

	// LaTeX toolchain
	LatexCompiler       string `env:"LATEX_COMPILER, overwrite, default=pdflatex"`
	LatexPasses         int    `env:"LATEX_PASSES, overwrite, default=2"`
	HTMLExporter        string `env:"HTML_EXPORTER, overwrite, default=make4ht"`
	ToolchainTimeoutSec int    `env:"TOOLCHAIN_TIMEOUT_SEC, overwrite, default=120"`
	MaxUploadMB         int    `env:"MAX_UPLOAD_MB, overwrite, default=20"`

	// Public home page
	FeedSize int `env:"FEED_SIZE, overwrite, default=5"`
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.Mutex
)

// Load reads config/config.json (when present) and applies defaults and
// environment overrides. It is called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	c, err := LoadFrom(filepath.Join("config", "config.json"), envconfig.OsLookuper())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.Lock()
	ok := loaded
	mu.Unlock()
	if !ok {
		return Load()
	}
	return cfg
}

// Set replaces the cached configuration. Tests use it to avoid touching the
// filesystem and environment.
func Set(c AppConfig) {
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
}

// LoadFrom builds a configuration with precedence json file -> defaults ->
// lookuper. A missing file is not an error; malformed JSON is.
func LoadFrom(path string, lookuper envconfig.Lookuper) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return AppConfig{}, err
	}
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &c,
		Lookuper: lookuper,
	}); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// loadJSONConfig accepts flat keys as well as keys grouped into sections
// ("app", "database", "redis", "log", "session", "latex"). Field names match
// AppConfig names case-insensitively.
func loadJSONConfig(path string, out *AppConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	// flat keys first, then grouped sections take priority
	if err := json.Unmarshal(b, out); err != nil {
		return err
	}
	for _, group := range []string{"app", "database", "redis", "log", "session", "latex"} {
		section, ok := raw[group]
		if !ok {
			continue
		}
		if err := json.Unmarshal(section, out); err != nil {
			return err
		}
	}
	return nil
}
