package cache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
)

func TestProductKey(t *testing.T) {
	id := uuid.MustParse("6f1c1c5e-8a4b-4c1e-9b0e-0d4b2b0f5a11")
	if got := ProductKey(id); got != "product:6f1c1c5e-8a4b-4c1e-9b0e-0d4b2b0f5a11" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), config.Redis{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without address")
	}
}

// Nothing listens on the address, so every call must degrade to a logged miss.
func TestUnreachableRedisIsSoft(t *testing.T) {
	var buf bytes.Buffer
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	c := newRedisClient(client, time.Minute, zerolog.New(&buf))
	defer c.Close()

	ctx := context.Background()
	p := models.Product{ID: uuid.New(), ProductName: "Widget", Stock: 1}

	c.SetProduct(ctx, p, "")
	if _, _, ok := c.GetProduct(ctx, p.ID); ok {
		t.Fatal("expected miss")
	}
	c.DeleteProducts(ctx, p.ID)

	if !strings.Contains(buf.String(), "error retrieving product from Redis") {
		t.Fatalf("expected logged failure, got %q", buf.String())
	}
}

func TestNoop(t *testing.T) {
	var c Noop
	ctx := context.Background()
	c.SetProduct(ctx, models.Product{ID: uuid.New()}, "")
	if _, _, ok := c.GetProduct(ctx, uuid.New()); ok {
		t.Fatal("noop cache never hits")
	}
	c.DeleteProducts(ctx)
}

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := newRedisClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute, zerolog.Nop())
	t.Cleanup(c.Close)
	return c, srv
}

func TestProductRoundTrip(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	p := models.Product{ID: uuid.New(), ProductName: "Widget", Stock: 4, Price: 10}

	_, version, ok := c.GetProduct(ctx, p.ID)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	c.SetProduct(ctx, p, version)

	got, _, ok := c.GetProduct(ctx, p.ID)
	if !ok || got.Stock != 4 || got.ProductName != "Widget" {
		t.Fatalf("expected cached product, got %+v %v", got, ok)
	}
	if ttl := srv.TTL(ProductKey(p.ID)); ttl != time.Minute {
		t.Fatalf("expected one minute TTL, got %s", ttl)
	}

	c.DeleteProducts(ctx, p.ID)
	if _, _, ok := c.GetProduct(ctx, p.ID); ok {
		t.Fatal("expected miss after invalidation")
	}
}

// A fill that read the database before an invalidation must not bring the old stock back.
func TestFillAfterInvalidationIsDropped(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()
	id := uuid.New()

	_, version, _ := c.GetProduct(ctx, id)
	stale := models.Product{ID: id, ProductName: "Widget", Stock: 10}

	c.DeleteProducts(ctx, id) // a sale commits meanwhile
	c.SetProduct(ctx, stale, version)
	if srv.Exists(ProductKey(id)) {
		t.Fatal("stale product was cached")
	}

	_, version, _ = c.GetProduct(ctx, id)
	fresh := models.Product{ID: id, ProductName: "Widget", Stock: 7}
	c.SetProduct(ctx, fresh, version)
	got, _, ok := c.GetProduct(ctx, id)
	if !ok || got.Stock != 7 {
		t.Fatalf("expected fresh fill, got %+v %v", got, ok)
	}
}
