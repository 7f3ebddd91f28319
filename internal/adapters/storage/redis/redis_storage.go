// Package redis disponibiliza a implementação do storage baseada em Redis,
// compartilhada entre instâncias da aplicação.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
)

// incrementScript incrementa e fixa o TTL apenas no primeiro hit da janela,
// num único round-trip atômico; instâncias concorrentes nunca perdem updates.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

type Storage struct {
	client    *redis.Client
	opTimeout time.Duration
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int

	// OpTimeout limita cada operação; o pipeline nunca bloqueia indefinidamente.
	OpTimeout time.Duration
}

func New(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 500 * time.Millisecond
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Storage{client: client, opTimeout: cfg.OpTimeout}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// Client expõe o cliente subjacente para colaboradores que compartilham a
// mesma conexão, como o sink de auditoria.
func (s *Storage) Client() *redis.Client {
	return s.client
}

func (s *Storage) Increment(ctx context.Context, key string, window time.Duration) (domain.Counter, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	result, err := incrementScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return domain.Counter{}, storeErr("increment", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return domain.Counter{}, storeErr("increment", fmt.Errorf("unexpected script reply %v", result))
	}

	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)

	resetAt := time.Now().Add(window)
	if ttlMs > 0 {
		resetAt = time.Now().Add(time.Duration(ttlMs) * time.Millisecond)
	}

	return domain.Counter{Count: count, ResetAt: resetAt}, nil
}

func (s *Storage) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return storeErr("reset", err)
	}
	return nil
}

func (s *Storage) IsBlocked(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	// O TTL da chave carrega o expiresAt; a consulta é preguiçosa e sobrevive
	// a restarts do processo.
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, storeErr("is_blocked", err)
	}
	return exists > 0, nil
}

func (s *Storage) SetBlock(ctx context.Context, key string, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	if duration <= 0 {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return storeErr("set_block", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, key, "1", duration).Err(); err != nil {
		return storeErr("set_block", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("redis %s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
}
