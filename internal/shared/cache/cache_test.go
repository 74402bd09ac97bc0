package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { c.Close() })
	return c, mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	in := payload{Name: "taxe assurance", Count: 3}
	if err := c.Set(ctx, RuleKey("abc"), in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	if err := c.Get(ctx, RuleKey("abc"), &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestGetMissingKeyReturnsErrMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var out payload
	err := c.Get(context.Background(), VariableKey("absent"), &out)
	if !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestDeleteInvalidates(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, VariableKey("age"), payload{Name: "age"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, VariableKey("age")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var out payload
	if err := c.Get(ctx, VariableKey("age"), &out); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}

func TestExpirationEvicts(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, ProductKey("p1"), payload{Name: "auto"}, time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out payload
	if err := c.Get(ctx, ProductKey("p1"), &out); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after TTL, got %v", err)
	}
}

func TestExists(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	ok, err := c.Exists(ctx, RuleKey("r1"))
	if err != nil || ok {
		t.Fatalf("Exists on absent key = (%v, %v)", ok, err)
	}

	if err := c.Set(ctx, RuleKey("r1"), payload{}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = c.Exists(ctx, RuleKey("r1"))
	if err != nil || !ok {
		t.Fatalf("Exists on present key = (%v, %v)", ok, err)
	}
}
