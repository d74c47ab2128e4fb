package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Apple lifecycle
	RottenTimeLimit time.Duration // 地面に落ちてから腐るまでの猶予時間
	MinApplesCount  int           // 再生成時の最小個数
	MaxApplesCount  int           // 再生成時の最大個数

	// Cleanup
	DeletedRetentionDays int // ソフトデリート済みりんごの保持日数

	// Rate Limit
	RateLimitGeneral  int // API全般 req/min/user
	RateLimitGenerate int // 再生成 req/min/user

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
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

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.RottenTimeLimit = time.Duration(getEnvInt("ROTTEN_TIME_LIMIT", 300)) * time.Second
	cfg.MinApplesCount = getEnvInt("MIN_APPLES_COUNT", 2)
	cfg.MaxApplesCount = getEnvInt("MAX_APPLES_COUNT", 10)
	cfg.DeletedRetentionDays = getEnvInt("DELETED_RETENTION_DAYS", 30)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitGenerate = getEnvInt("RATE_LIMIT_GENERATE", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.MinApplesCount < 0 || cfg.MaxApplesCount < cfg.MinApplesCount {
		return nil, fmt.Errorf("invalid apple count range: min=%d max=%d", cfg.MinApplesCount, cfg.MaxApplesCount)
	}

	return cfg, nil
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
