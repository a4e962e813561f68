package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrMissingToken TMDB 凭证缺失（配置错误，启动时即失败）
var ErrMissingToken = errors.New("config: TMDB_TOKEN is required")

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env            string        `validate:"oneof=development production test"`
	AppSecret      string        `validate:"required"`
	Port           string        `validate:"required,numeric"`
	SiteName       string        `validate:"required"`
	TMDBToken      string        `validate:"required"`
	TMDBBaseURL    string        `validate:"required,url"`
	TMDBImageURL   string        `validate:"required,url"`
	TMDBTimeout    time.Duration `validate:"gt=0"`
	CacheSize      int           `validate:"gt=0"`
	CacheTTL       time.Duration `validate:"gt=0"`
	RateLimitRPS   float64       `validate:"gte=0"`
	RateLimitBurst int           `validate:"gte=0"`
	AdminToken     string
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		AppSecret:      getEnv("APP_SECRET", defaultSecret),
		Port:           getEnv("PORT", "5005"),
		SiteName:       getEnv("SITE_NAME", "Moovie Search"),
		TMDBToken:      getEnv("TMDB_TOKEN", os.Getenv("VITE_API_KEY")),
		TMDBBaseURL:    getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageURL:   getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p"),
		TMDBTimeout:    getDuration("TMDB_TIMEOUT", 10*time.Second),
		CacheSize:      getInt("QUERY_CACHE_SIZE", 500),
		CacheTTL:       getDuration("QUERY_CACHE_TTL", 5*time.Minute),
		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Env == "production" && cfg.AppSecret == defaultSecret {
		log.Println("[Config] 生产环境正在使用默认 APP_SECRET，请尽快设置")
	}

	return cfg, nil
}

// Validate 校验配置，凭证缺失单独返回 ErrMissingToken
func (c *Config) Validate() error {
	if c.TMDBToken == "" {
		return ErrMissingToken
	}
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config: invalid %s (%s)", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// getDuration 支持 "10s" 形式，也兼容纯数字秒
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
