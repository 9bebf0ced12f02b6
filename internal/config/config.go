// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileEnvName は設定ファイルのパスを指定する環境変数名。
const ConfigFileEnvName = "GLOWDERM_CONFIG_FILE"

// ストアのバックエンド種別
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend   string
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisAddr      string

	// Catalog
	CatalogFile string

	// Delays
	AuthDelay   time.Duration
	SubmitDelay time.Duration

	// Client
	ClientIDMaxAge int // client_id Cookieの有効期間（秒）

	// Rate Limit
	RateLimitGeneral int
	RateLimitAuth    int

	// Events
	KafkaBrokers     []string
	KafkaTopicPrefix string
	PublishTimeout   time.Duration // イベント送信待ちの上限

	// Tracing
	OTLPEndpoint string

	// Cleanup
	CleanupRetentionDays int
	CleanupInterval      time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は設定ファイル（任意）と環境変数からConfigを読み込む。
// argsに--configがあればそのファイルを、なければGLOWDERM_CONFIG_FILEのファイルを読む。
// 環境変数は設定ファイルの値より優先する。
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path := configFilePath(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}

	cfg.StoreBackend = strings.ToLower(getString(v, "STORE_BACKEND", BackendMemory))
	cfg.DatabaseURL = getString(v, "DATABASE_URL", "")
	cfg.RedisAddr = getString(v, "REDIS_ADDR", "")

	// Required fields
	var missing []string
	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want memory, redis or postgres)", cfg.StoreBackend)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBMaxOpenConns = getInt(v, "DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = getInt(v, "DB_MAX_IDLE_CONNS", 5)
	cfg.CatalogFile = getString(v, "CATALOG_FILE", "")
	cfg.AuthDelay = getDuration(v, "AUTH_DELAY", 500*time.Millisecond)
	cfg.SubmitDelay = getDuration(v, "SUBMIT_DELAY", time.Second)
	cfg.ClientIDMaxAge = getInt(v, "CLIENT_ID_MAX_AGE", 365*24*60*60)
	cfg.RateLimitGeneral = getInt(v, "RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAuth = getInt(v, "RATE_LIMIT_AUTH", 10)
	cfg.KafkaBrokers = getList(v, "KAFKA_BROKERS")
	cfg.KafkaTopicPrefix = getString(v, "KAFKA_TOPIC_PREFIX", "glowderm.")
	cfg.PublishTimeout = getDuration(v, "PUBLISH_TIMEOUT", 3*time.Second)
	cfg.OTLPEndpoint = getString(v, "OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.CleanupRetentionDays = getInt(v, "CLEANUP_RETENTION_DAYS", 30)
	cfg.CleanupInterval = getDuration(v, "CLEANUP_INTERVAL", 24*time.Hour)
	cfg.LogLevel = getString(v, "LOG_LEVEL", "info")
	cfg.ServerPort = getString(v, "SERVER_PORT", "8080")
	cfg.BaseURL = getString(v, "BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getString(v, "COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getString(v, "CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// configFilePath はコマンドライン引数または環境変数から設定ファイルのパスを求める。
// 未知のフラグは無視する。
func configFilePath(args []string) string {
	fs := pflag.NewFlagSet("glowderm", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "config file")
	_ = fs.Parse(args)

	if *path != "" {
		return *path
	}
	return os.Getenv(ConfigFileEnvName)
}

func getString(v *viper.Viper, key, defaultVal string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return defaultVal
}

func getInt(v *viper.Viper, key string, defaultVal int) int {
	s := v.GetString(key)
	if s == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return i
}

func getDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	s := v.GetString(key)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// getList はカンマ区切りの文字列、または設定ファイルのリストを読み込む。
func getList(v *viper.Viper, key string) []string {
	var raw []string
	if s := v.GetString(key); s != "" {
		raw = strings.Split(s, ",")
	} else {
		raw = v.GetStringSlice(key)
	}

	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
