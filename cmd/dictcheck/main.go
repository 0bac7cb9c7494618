// Command dictcheck probes the dictionary oracle with the words given
// on the command line and prints a verdict per word. Unlike the in-game
// gateway it surfaces oracle outages instead of masking them with the
// allowlist, so it is the tool to reach for before pointing the server
// at a new endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okvist/wordrack/internal/dict"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(words []string) int {
	if len(words) == 0 {
		log.Println("usage: dictcheck <word> [word ...]")
		return 2
	}

	baseURL := strings.TrimSpace(os.Getenv("DICT_API_URL"))
	if baseURL == "" {
		baseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	}

	// Same cache selection as the server: Redis when REDIS_URL is set,
	// so the probe also covers the cache round-trip.
	var cache dict.Cache = dict.NewMemoryCache(10 * time.Minute)
	if redisURL := strings.TrimSpace(os.Getenv("REDIS_URL")); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("redis url error: %v", err)
			return 1
		}
		rdb := redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			log.Printf("redis ping error: %v", err)
			return 1
		}
		defer rdb.Close()
		log.Printf("redis ok: %s", opts.Addr)
		cache = dict.NewRedisCache(rdb, 10*time.Minute)
	}

	client := dict.NewClient(baseURL,
		dict.WithTimeout(8*time.Second),
		dict.WithRetry(1),
	)
	// The gateway is only here for its allowlist, to preview what an
	// outage would answer in-game.
	gateway, err := dict.NewGateway(client, cache, 4)
	if err != nil {
		log.Printf("gateway init error: %v", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	exit := 0
	for _, w := range words {
		start := time.Now()
		valid, err := client.Lookup(ctx, w)
		elapsed := time.Since(start).Round(time.Millisecond)
		switch {
		case errors.Is(err, dict.ErrUnavailable):
			fmt.Printf("?? %-16s oracle unavailable, fallback would say valid=%v (%s)\n", w, gateway.KnownFallback(w), elapsed)
			exit = 1
		case err != nil:
			fmt.Printf("!! %-16s %v (%s)\n", w, err, elapsed)
			exit = 1
		default:
			key := strings.ToLower(strings.TrimSpace(w))
			note := "cached"
			if perr := cache.Put(ctx, key, valid); perr != nil {
				note = "cache put failed: " + perr.Error()
				exit = 1
			} else if back, ok, gerr := cache.Get(ctx, key); gerr != nil || !ok || back != valid {
				note = "cache round-trip failed"
				exit = 1
			}
			if valid {
				fmt.Printf("ok %-16s valid (%s, %s)\n", w, elapsed, note)
			} else {
				fmt.Printf("no %-16s not a word (%s, %s)\n", w, elapsed, note)
			}
		}
	}
	return exit
}
