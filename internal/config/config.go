package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	DictAPIURL      string
	DictTimeout     time.Duration
	DictRetryMax    int
	DictConcurrency int
	DictCacheTTL    time.Duration

	RoomCapacity    int
	ReconnectWindow time.Duration
	EmptyRoomTTL    time.Duration
	StartedRoomTTL  time.Duration
	CleanupInterval time.Duration
	HistoryLimit    int

	TilesetName        string
	TilesetOverrideDir string
	MsgcatOverrideDir  string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:      ":8080",
		DictAPIURL:      "https://api.dictionaryapi.dev/api/v2/entries/en",
		DictTimeout:     4 * time.Second,
		DictRetryMax:    2,
		DictConcurrency: 8,
		DictCacheTTL:    24 * time.Hour,
		RoomCapacity:    4,
		ReconnectWindow: 5 * time.Minute,
		EmptyRoomTTL:    10 * time.Minute,
		StartedRoomTTL:  24 * time.Hour,
		CleanupInterval: time.Minute,
		HistoryLimit:    10,
		TilesetName:     "english",
	}

	if v := strings.TrimSpace(os.Getenv("WORDRACK_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("DICT_API_URL")); v != "" {
		cfg.DictAPIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("DICT_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DictTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("DICT_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DictRetryMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DICT_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DictConcurrency = n
		}
	}
	if d, ok := envDuration("DICT_CACHE_TTL"); ok {
		cfg.DictCacheTTL = d
	}

	if v := strings.TrimSpace(os.Getenv("ROOM_CAPACITY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 2 {
			cfg.RoomCapacity = n
		}
	}
	if d, ok := envDuration("RECONNECT_WINDOW"); ok {
		cfg.ReconnectWindow = d
	}
	if d, ok := envDuration("EMPTY_ROOM_TTL"); ok {
		cfg.EmptyRoomTTL = d
	}
	if d, ok := envDuration("STARTED_ROOM_TTL"); ok {
		cfg.StartedRoomTTL = d
	}
	if d, ok := envDuration("CLEANUP_INTERVAL"); ok {
		cfg.CleanupInterval = d
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TILESET")); v != "" {
		cfg.TilesetName = strings.ToLower(v)
	}
	cfg.TilesetOverrideDir = strings.TrimSpace(os.Getenv("TILESET_OVERRIDE_DIR"))
	cfg.MsgcatOverrideDir = strings.TrimSpace(os.Getenv("MSGCAT_OVERRIDE_DIR"))

	return cfg, nil
}

// envDuration accepts Go duration strings ("30s", "5m") and falls back
// to plain integer seconds.
func envDuration(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}
