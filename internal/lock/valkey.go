package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Valkey is a Locker shared by every process connected to the same server.
// The TTL bounds how long a crashed holder can block a game.
type Valkey struct {
	client valkey.Client
	logger *slog.Logger
	prefix string
	ttl    time.Duration
}

// NewValkey creates a distributed Locker. Keys are stored as prefix+key.
func NewValkey(client valkey.Client, logger *slog.Logger, prefix string, ttl time.Duration) *Valkey {
	if logger == nil {
		logger = slog.Default()
	}
	return &Valkey{
		client: client,
		logger: logger.With("component", "lock"),
		prefix: prefix,
		ttl:    ttl,
	}
}

// Acquire takes the lock with SET NX EX or fails with ErrBusy.
func (v *Valkey) Acquire(ctx context.Context, key string) (Release, error) {
	k := v.prefix + key
	token := uuid.NewString()
	cmd := v.client.B().Set().Key(k).Value(token).Nx().Ex(v.ttl).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("acquire lock %s: %w", k, err)
	}
	v.logger.Debug("lock acquired", "key", k)

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Exec(rctx, v.client, []string{k}, []string{token}).Error(); err != nil {
				v.logger.Warn("lock release failed", "key", k, "error", err)
				return
			}
			v.logger.Debug("lock released", "key", k)
		})
	}, nil
}
