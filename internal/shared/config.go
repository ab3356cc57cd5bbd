package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	MetricsAddr   string
	StoreDriver   string // mysql|memory
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	InventoryFile string

	RequestTimeout  time.Duration
	DefaultRoomType string

	BackendBase string
	BackendKey  string
	BackendRPS  int

	Workers          int
	ImportFrom       string
	ImportTo         string
	ImportWindowDays int
	ImportPageSize   int
	ImportCron       string
	ImportLookback   int
	ImportAhead      int
}

func Load() Config {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		StoreDriver:   env("STORE_DRIVER", "mysql"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		InventoryFile: env("INVENTORY_FILE", "config/inventory.yaml"),

		RequestTimeout:  time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		DefaultRoomType: env("DEFAULT_ROOM_TYPE", "standard"),

		BackendBase: env("BACKEND_BASE_URL", ""),
		BackendKey:  env("BACKEND_API_KEY", ""),
		BackendRPS:  atoi("BACKEND_RPS", 5),

		Workers:          atoi("IMPORT_WORKERS", 4),
		ImportFrom:       env("IMPORT_FROM", ""),
		ImportTo:         env("IMPORT_TO", ""),
		ImportWindowDays: atoi("IMPORT_WINDOW_DAYS", 31),
		ImportPageSize:   atoi("IMPORT_PAGE_SIZE", 500),
		ImportCron:       env("IMPORT_CRON", ""),
		ImportLookback:   atoi("IMPORT_LOOKBACK_DAYS", 7),
		ImportAhead:      atoi("IMPORT_AHEAD_DAYS", 90),
	}
	if c.StoreDriver != "mysql" && c.StoreDriver != "memory" {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, using mysql")
		c.StoreDriver = "mysql"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
