// Package ports define contratos que conectam o domínio a implementações externas.
package ports

import (
	"context"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

// Storage é o Counter Store compartilhado pelo rate limiter e pelo detector de abuso.
// Implementações devem ser seguras para uso concorrente: incrementos na mesma
// chave nunca podem perder atualizações.
type Storage interface {
	// Increment soma 1 ao contador da chave de forma atômica. A janela (TTL)
	// é ancorada no primeiro incremento e não é estendida pelos seguintes.
	Increment(ctx context.Context, key string, window time.Duration) (domain.Counter, error)

	// Reset descarta o contador da chave.
	Reset(ctx context.Context, key string) error

	// IsBlocked verifica de forma preguiçosa se a chave está bloqueada agora.
	IsBlocked(ctx context.Context, key string) (bool, error)

	// SetBlock registra um bloqueio com expiração absoluta (now + duration).
	SetBlock(ctx context.Context, key string, duration time.Duration) error
}
