package dict

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/okvist/wordrack/internal/obslog"
)

//go:embed allowlist.yaml
var fallbackFiles embed.FS

// Oracle is the word authority. Lookup may block on the network.
type Oracle interface {
	Lookup(ctx context.Context, word string) (bool, error)
}

// Gateway decides word validity: cache first, then the oracle, then the
// embedded allowlist when the oracle gives no verdict. Dictionary
// infrastructure trouble therefore never fails a move outright.
type Gateway struct {
	oracle Oracle
	cache  Cache
	sem    chan struct{}
	allow  map[string]bool
}

// NewGateway wires the lookup chain. concurrency bounds simultaneous
// oracle calls across all rooms.
func NewGateway(oracle Oracle, cache Cache, concurrency int) (*Gateway, error) {
	if concurrency <= 0 {
		concurrency = 8
	}
	allow, err := loadAllowlist()
	if err != nil {
		return nil, err
	}
	return &Gateway{
		oracle: oracle,
		cache:  cache,
		sem:    make(chan struct{}, concurrency),
		allow:  allow,
	}, nil
}

func loadAllowlist() (map[string]bool, error) {
	raw, err := fs.ReadFile(fallbackFiles, "allowlist.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded allowlist: %w", err)
	}
	var doc struct {
		Words []string `yaml:"words"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse allowlist: %w", err)
	}
	out := make(map[string]bool, len(doc.Words))
	for _, w := range doc.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out[w] = true
		}
	}
	return out, nil
}

// Check reports whether the word is playable. The error return is only
// ever a context error; an unreachable oracle degrades to the allowlist.
func (g *Gateway) Check(ctx context.Context, word string) (bool, error) {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return false, nil
	}

	if g.cache != nil {
		valid, ok, err := g.cache.Get(ctx, w)
		if err != nil {
			obslog.L().Debug("dict_cache_read_error", zap.String("word", w), zap.Error(err))
		} else if ok {
			return valid, nil
		}
	}

	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	valid, err := g.oracle.Lookup(ctx, w)
	<-g.sem

	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		hit := g.allow[w]
		obslog.L().Warn("dict_fallback",
			zap.String("word", w),
			zap.Bool("allowlisted", hit),
			zap.Error(err))
		return hit, nil
	}

	if g.cache != nil {
		if cerr := g.cache.Put(ctx, w, valid); cerr != nil {
			obslog.L().Debug("dict_cache_write_error", zap.String("word", w), zap.Error(cerr))
		}
	}
	return valid, nil
}

// KnownFallback reports whether the embedded list carries the word.
// dictcheck uses it to preview what an outage would answer.
func (g *Gateway) KnownFallback(word string) bool {
	return g.allow[strings.ToLower(strings.TrimSpace(word))]
}
