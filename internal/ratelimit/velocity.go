package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/refgate/refgate/internal/config"
)

const keyClickVelocity = "clicks:ip:%s:%s"

const velocityScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`

// ClickVelocity counts clicks per IP in fixed daily windows backed by
// redis. The fixed window approximates the trailing 24h count; callers
// needing exact numbers fall back to a database count. A nil receiver
// (redis not configured) reports zero.
type ClickVelocity struct {
	client *redis.Client
	script *redis.Script
	window time.Duration
}

func NewClickVelocity(cfg config.Config) *ClickVelocity {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &ClickVelocity{
		client: client,
		script: redis.NewScript(velocityScript),
		window: 24 * time.Hour,
	}
}

// Enabled reports whether a redis backend is configured.
func (v *ClickVelocity) Enabled() bool {
	return v != nil && v.client != nil
}

// Observe counts one click for the IP and returns the running total in the
// current window.
func (v *ClickVelocity) Observe(ctx context.Context, ip string) (int64, error) {
	if !v.Enabled() {
		return 0, nil
	}
	key := fmt.Sprintf(keyClickVelocity, strings.TrimSpace(ip), time.Now().UTC().Format("20060102"))
	res, err := v.script.Run(ctx, v.client, []string{key}, v.window.Milliseconds()).Int64()
	if err != nil {
		return 0, err
	}
	return res, nil
}
