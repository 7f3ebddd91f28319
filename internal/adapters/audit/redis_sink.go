package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
)

// RedisSink acumula contadores de negação por motivo e por rota, mais uma lista
// limitada das negações recentes, num pipeline único.
//
// Best-effort: o chamador deve tratar erro como aviso, nunca derrubar a requisição.
// Cuidado com cardinalidade: a rota entra crua no hash; rotas com ids podem
// explodir o número de campos.
type RedisSink struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	recent int64
}

var _ ports.AuditSink = (*RedisSink)(nil)

type RedisSinkOption func(*RedisSink)

func WithPrefix(prefix string) RedisSinkOption {
	return func(s *RedisSink) { s.prefix = strings.Trim(prefix, ":") }
}

func WithTTL(d time.Duration) RedisSinkOption {
	return func(s *RedisSink) { s.ttl = d }
}

func WithRecentLimit(n int64) RedisSinkOption {
	return func(s *RedisSink) { s.recent = n }
}

func NewRedisSink(rdb *redis.Client, opts ...RedisSinkOption) *RedisSink {
	s := &RedisSink{
		rdb:    rdb,
		prefix: "admission:audit",
		ttl:    24 * time.Hour,
		recent: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSink) Record(ctx context.Context, ev domain.AuditEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	pipe := s.rdb.Pipeline()

	pipe.HIncrBy(ctx, s.prefix+":reason", string(ev.Reason), 1)

	route := strings.TrimSpace(ev.Route)
	if route != "" {
		pipe.HIncrBy(ctx, s.prefix+":route", route+":"+string(ev.Reason), 1)
	}

	if s.recent > 0 {
		entry := fmt.Sprintf("%s %s %s %s", at.UTC().Format(time.RFC3339Nano), ev.Identifier, route, ev.Reason)
		recentKey := s.prefix + ":recent"
		pipe.LPush(ctx, recentKey, entry)
		pipe.LTrim(ctx, recentKey, 0, s.recent-1)
		if s.ttl > 0 {
			pipe.Expire(ctx, recentKey, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}
