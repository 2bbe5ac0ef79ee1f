package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	NDCBase      string
	NDCTokenURL  string
	NDCClientID  string
	NDCSecret    string
	NDCRateLimit int

	Workers  int
	Routes   []string // "JFK-LHR" pairs for the batch shopper
	ShopDays int      // departure days per route, starting tomorrow
	CacheTTL time.Duration
}

func Load() Config {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/flightshop?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		NDCBase:      env("NDC_BASE_URL", "https://api.airline-distribution.example/v1"),
		NDCTokenURL:  env("NDC_TOKEN_URL", "https://api.airline-distribution.example/v1/oauth2/token"),
		NDCClientID:  env("NDC_CLIENT_ID", ""),
		NDCSecret:    env("NDC_CLIENT_SECRET", ""),
		NDCRateLimit: atoi("NDC_RATE_LIMIT", 5),

		Workers:  atoi("SHOP_WORKERS", 8),
		Routes:   splitRoutes(env("SHOP_ROUTES", "JFK-LHR,LHR-JFK")),
		ShopDays: atoi("SHOP_DAYS", 3),
		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.NDCClientID == "" || c.NDCSecret == "" {
		log.Warn().Msg("NDC_CLIENT_ID / NDC_CLIENT_SECRET are empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitRoutes(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if t := strings.TrimSpace(r); t != "" {
			out = append(out, t)
		}
	}
	return out
}
