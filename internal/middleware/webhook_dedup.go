package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"shoppay/internal/metrics"
	"shoppay/internal/models"
)

const (
	defaultDedupTTL = 24 * time.Hour
	dedupPrefix     = "vnpay:ipn"

	// CallbackFinalKey is set on the echo context by a callback handler once it
	// has given the gateway a final answer.
	CallbackFinalKey = "callback_final"
)

// CallbackDeduper remembers callback deliveries that were already handled.
type CallbackDeduper interface {
	// Seen claims key and reports whether it had already been claimed.
	Seen(ctx context.Context, key string) (bool, error)
	// Release forgets key so the next delivery is processed again.
	Release(ctx context.Context, key string) error
}

type redisCallbackDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisCallbackDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

func (d *redisCallbackDeduper) Release(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.prefix+":"+key).Err()
}

type memoryCallbackDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

func newMemoryCallbackDeduper(ttl time.Duration) *memoryCallbackDeduper {
	now := time.Now()
	return &memoryCallbackDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
		now:    time.Now,
	}
}

func (d *memoryCallbackDeduper) Seen(_ context.Context, key string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

func (d *memoryCallbackDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
	return nil
}

// NewCallbackDeduper builds a Redis deduper and falls back to in-memory on failure.
func NewCallbackDeduper(addr, pass string, db int, ttl time.Duration) (CallbackDeduper, error) {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	if addr == "" {
		return newMemoryCallbackDeduper(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return newMemoryCallbackDeduper(ttl), err
	}

	return &redisCallbackDeduper{
		client: client,
		prefix: dedupPrefix,
		ttl:    ttl,
	}, nil
}

// IPNDedup short-circuits replays of an IPN delivery that was already answered.
// Deliveries are keyed by their signature. The key is released unless the handler
// marked the delivery final, which it only does for verified callbacks, so a
// forged request reusing a genuine hash cannot mask the genuine one.
func IPNDedup(deduper CallbackDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			key := strings.ToLower(strings.TrimSpace(c.QueryParam("vnp_SecureHash")))
			if key == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			isDuplicate, err := deduper.Seen(ctx, key)
			if err != nil {
				return next(c)
			}
			if isDuplicate {
				metrics.CallbackReceived("ipn", metrics.ResultDedupReplayed)
				return c.JSON(http.StatusOK, models.IPNResponse{
					RspCode: models.RspAlreadyConfirmed,
					Message: "Order already confirmed",
				})
			}

			err = next(c)
			if final, _ := c.Get(CallbackFinalKey).(bool); !final {
				_ = deduper.Release(context.WithoutCancel(ctx), key)
			}
			return err
		}
	}
}
