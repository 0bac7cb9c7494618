package dict

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type oracleFunc func(ctx context.Context, word string) (bool, error)

func (f oracleFunc) Lookup(ctx context.Context, word string) (bool, error) { return f(ctx, word) }

func TestGatewayCachesVerdicts(t *testing.T) {
	var calls atomic.Int32
	oracle := oracleFunc(func(ctx context.Context, word string) (bool, error) {
		calls.Add(1)
		return word == "cat", nil
	})
	g, err := NewGateway(oracle, NewMemoryCache(time.Hour), 4)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		valid, err := g.Check(ctx, "CAT")
		if err != nil || !valid {
			t.Fatalf("check %d: valid=%v err=%v", i, valid, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("oracle calls = %d, want 1", calls.Load())
	}

	// Negative verdicts cache too.
	if valid, _ := g.Check(ctx, "zzqy"); valid {
		t.Fatal("zzqy accepted")
	}
	if _, err := g.Check(ctx, "zzqy"); err != nil {
		t.Fatalf("cached negative: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("oracle calls = %d, want 2", calls.Load())
	}
}

func TestGatewayFallsBackToAllowlist(t *testing.T) {
	oracle := oracleFunc(func(ctx context.Context, word string) (bool, error) {
		return false, ErrUnavailable
	})
	g, err := NewGateway(oracle, nil, 4)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	ctx := context.Background()

	valid, err := g.Check(ctx, "cat")
	if err != nil || !valid {
		t.Fatalf("allowlisted word: valid=%v err=%v", valid, err)
	}
	valid, err = g.Check(ctx, "zzqy")
	if err != nil || valid {
		t.Fatalf("unknown word: valid=%v err=%v", valid, err)
	}
}

func TestGatewayPropagatesCancellation(t *testing.T) {
	oracle := oracleFunc(func(ctx context.Context, word string) (bool, error) {
		return false, ctx.Err()
	})
	g, err := NewGateway(oracle, nil, 1)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Check(ctx, "cat"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGatewayKnownFallback(t *testing.T) {
	g, err := NewGateway(oracleFunc(func(ctx context.Context, w string) (bool, error) {
		return false, nil
	}), nil, 1)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	if !g.KnownFallback("CAT") {
		t.Fatal("cat missing from fallback list")
	}
	if g.KnownFallback("zzqy") {
		t.Fatal("zzqy should not be on the fallback list")
	}
}
