package services

import (
	"context"
	"fmt"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

// WindowLimiter avalia requisições contra uma política de janela fixa,
// usando o Counter Store para serializar incrementos concorrentes.
type WindowLimiter struct {
	storage ports.Storage
	faults  *storeFaultLogger
	now     func() time.Time
}

func NewWindowLimiter(storage ports.Storage, log *observability.Logger) (*WindowLimiter, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	return &WindowLimiter{
		storage: storage,
		faults:  newStoreFaultLogger(log),
		now:     time.Now,
	}, nil
}

// Evaluate incrementa o contador da janela corrente e decide allow/deny.
// A requisição que faz count == MaxRequests é a última permitida.
// Falha do store degrada para allow (fail-open); a chamada nunca retorna erro.
func (l *WindowLimiter) Evaluate(ctx context.Context, identifier string, policy domain.Policy) domain.Verdict {
	now := l.now()
	idx := windowIndex(now, policy.Window)
	resetAt := windowResetAt(idx, policy.Window)
	key := counterKey(identifier, policy.RouteBucket(), idx)

	counter, err := l.storage.Increment(ctx, key, policy.Window)
	if err != nil {
		l.faults.warn("increment", identifier, policy.RoutePrefix, err)
		return domain.Verdict{
			Allowed:   true,
			Policy:    policy,
			Remaining: policy.MaxRequests,
			ResetAt:   resetAt,
			Degraded:  true,
		}
	}

	remaining := policy.MaxRequests - int(counter.Count)
	if remaining < 0 {
		remaining = 0
	}

	if int(counter.Count) > policy.MaxRequests {
		return domain.Verdict{
			Allowed:    false,
			Reason:     domain.ReasonRateLimited,
			Policy:     policy,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	return domain.Verdict{
		Allowed:   true,
		Policy:    policy,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
