package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 管理者ID一覧やAPIキーは利用側へ明示的に注入し、
// 利用箇所でプロセス環境を直接参照しない。
type Config struct {
	// Database
	DatabaseURL string

	// Telegram
	TelegramBotToken string
	AdminUserIDs     []int64

	// Tribute（購読レジストリ）
	TributeAPIURL  string
	TributeAPIKey  string
	TributeTimeout time.Duration

	// Web App
	WebAppURL string

	// Bot
	BotMaxConcurrent int
	SendRate         int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigins []string
}

const defaultTributeAPIURL = "https://tribute.tg/api/v1/subscribers"

// defaultCORSOrigins はTelegram Mini Appの実行元オリジン。
var defaultCORSOrigins = []string{
	"https://web.telegram.org",
	"https://telegram.org",
	"https://t.me",
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if cfg.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}

	cfg.TributeAPIKey = os.Getenv("TRIBUTE_API_KEY")
	if cfg.TributeAPIKey == "" {
		missing = append(missing, "TRIBUTE_API_KEY")
	}

	cfg.WebAppURL = os.Getenv("WEBAPP_URL")
	if cfg.WebAppURL == "" {
		missing = append(missing, "WEBAPP_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.TributeAPIURL = getEnvString("TRIBUTE_API_URL", defaultTributeAPIURL)
	cfg.TributeTimeout = getEnvDuration("TRIBUTE_TIMEOUT", 10*time.Second)
	cfg.BotMaxConcurrent = getEnvInt("BOT_MAX_CONCURRENT", 16)
	cfg.SendRate = getEnvInt("SEND_RATE", 25)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	adminIDs, err := parseInt64List(os.Getenv("ADMIN_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}
	cfg.AdminUserIDs = adminIDs

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	} else {
		cfg.CORSAllowedOrigins = defaultCORSOrigins
	}

	return cfg, nil
}

// parseInt64List はカンマ区切りの整数リストを解析する。
// 空文字列の場合は空スライスを返す。
func parseInt64List(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
