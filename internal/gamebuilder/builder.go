// Package gamebuilder assembles the service graph from config: tile
// set, message catalog, dictionary gateway, room registry, play
// manager, archive repository and janitor.
package gamebuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/config"
	"github.com/okvist/wordrack/internal/dict"
	"github.com/okvist/wordrack/internal/msgcat"
	"github.com/okvist/wordrack/internal/play"
	"github.com/okvist/wordrack/internal/room"
	servicegame "github.com/okvist/wordrack/internal/service/game"
	"github.com/okvist/wordrack/internal/tileset"
)

type Deps struct {
	Service  *servicegame.Service
	Registry *room.Registry
	Binder   *room.Binder
	Plays    *play.Manager
	Words    *dict.Gateway
	Repo     servicegame.Repository
	Janitor  *room.Janitor
	Set      *tileset.Set

	db  *sql.DB
	rdb *redis.Client
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	set, err := tileset.Load(cfg.TilesetName, cfg.TilesetOverrideDir)
	if err != nil {
		return nil, fmt.Errorf("load tileset: %w", err)
	}
	msgs, err := msgcat.New(cfg.MsgcatOverrideDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	deps := &Deps{Set: set}

	// Word verdicts: Redis-backed cache when available, in-process
	// otherwise.
	var wordCache dict.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		rdb := redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		deps.rdb = rdb
		wordCache = dict.NewRedisCache(rdb, cfg.DictCacheTTL)
	} else {
		logger.Warn("dict_cache_memory_mode")
		wordCache = dict.NewMemoryCache(cfg.DictCacheTTL)
	}

	client := dict.NewClient(cfg.DictAPIURL,
		dict.WithTimeout(cfg.DictTimeout),
		dict.WithRetry(cfg.DictRetryMax))
	gateway, err := dict.NewGateway(client, wordCache, cfg.DictConcurrency)
	if err != nil {
		return nil, fmt.Errorf("init dictionary: %w", err)
	}
	deps.Words = gateway

	// Archive: Postgres when configured, in-process memory otherwise.
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, derr := sql.Open("postgres", cfg.DatabaseURL)
		if derr != nil {
			return nil, fmt.Errorf("open postgres: %w", derr)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		deps.db = db
		deps.Repo = servicegame.NewRepository(db)
	} else {
		logger.Warn("archive_memory_mode")
		deps.Repo = servicegame.NewMemoryRepository()
	}

	deps.Registry = room.NewRegistry(cfg.RoomCapacity, cfg.ReconnectWindow)
	deps.Binder = room.NewBinder()
	deps.Plays = play.NewManager(set)

	svc, err := servicegame.NewService(
		deps.Registry,
		deps.Binder,
		deps.Plays,
		gateway.Check,
		deps.Repo,
		servicegame.NewSVGBoardRenderer(),
		set,
		msgs,
		servicegame.Config{HistoryLimit: cfg.HistoryLimit},
		logger,
	)
	if err != nil {
		return nil, err
	}
	deps.Service = svc

	deps.Janitor = &room.Janitor{
		Registry:    deps.Registry,
		Interval:    cfg.CleanupInterval,
		EmptyTTL:    cfg.EmptyRoomTTL,
		StartedTTL:  cfg.StartedRoomTTL,
		OnDeparture: svc.HandleDeparture,
		Evict: func(code string) bool {
			return svc.EvictRoom(code, cfg.EmptyRoomTTL, cfg.StartedRoomTTL)
		},
	}
	return deps, nil
}

// Close releases the external connections.
func (d *Deps) Close() error {
	var first error
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			first = err
		}
	}
	if d.rdb != nil {
		if err := d.rdb.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
