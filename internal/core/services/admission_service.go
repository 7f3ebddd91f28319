package services

import (
	"context"
	"fmt"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

// AdmissionConfig reúne as dependências e ajustes do pipeline.
type AdmissionConfig struct {
	// FailClosedCategories lista categorias que negam em vez de permitir
	// quando o counter store está indisponível.
	FailClosedCategories []domain.Category
}

// AdmissionService orquestra o pipeline por requisição:
// block list → detector de abuso → rate limiter → veredito.
type AdmissionService struct {
	registry   *PolicyRegistry
	limiter    *WindowLimiter
	detector   *AbuseDetector
	audit      ports.AuditSink
	metrics    *observability.Metrics
	log        *observability.Logger
	failClosed map[domain.Category]bool
	now        func() time.Time
}

var _ ports.Admission = (*AdmissionService)(nil)

func NewAdmissionService(
	registry *PolicyRegistry,
	limiter *WindowLimiter,
	detector *AbuseDetector,
	audit ports.AuditSink,
	metrics *observability.Metrics,
	log *observability.Logger,
	cfg AdmissionConfig,
) (*AdmissionService, error) {
	if registry == nil || limiter == nil || detector == nil {
		return nil, fmt.Errorf("registry, limiter and detector are required")
	}

	failClosed := make(map[domain.Category]bool, len(cfg.FailClosedCategories))
	for _, c := range cfg.FailClosedCategories {
		failClosed[c] = true
	}

	return &AdmissionService{
		registry:   registry,
		limiter:    limiter,
		detector:   detector,
		audit:      audit,
		metrics:    metrics,
		log:        log,
		failClosed: failClosed,
		now:        time.Now,
	}, nil
}

// Admit avalia a requisição e retorna o veredito terminal. Nunca retorna erro:
// falhas de infraestrutura degradam para allow (ou deny, em categorias
// configuradas como fail-closed) e jamais viram 5xx para o chamador.
func (s *AdmissionService) Admit(ctx context.Context, req domain.AdmissionRequest) domain.Verdict {
	identifier := normalizeIdentifier(req.Identifier)
	policy := s.registry.Resolve(req.Route)

	if blocked, degraded := s.detector.IsBlocked(ctx, identifier); blocked {
		return s.finish(ctx, req, identifier, domain.Verdict{
			Allowed: false,
			Reason:  domain.ReasonBlocked,
			Policy:  policy,
		})
	} else if degraded && s.failClosed[policy.Category] {
		return s.finish(ctx, req, identifier, s.degradedDeny(policy))
	}

	if blocked, degraded := s.detector.Observe(ctx, identifier); blocked {
		return s.finish(ctx, req, identifier, domain.Verdict{
			Allowed: false,
			Reason:  domain.ReasonBlocked,
			Policy:  policy,
		})
	} else if degraded && s.failClosed[policy.Category] {
		return s.finish(ctx, req, identifier, s.degradedDeny(policy))
	}

	verdict := s.limiter.Evaluate(ctx, identifier, policy)
	if verdict.Degraded && s.failClosed[policy.Category] {
		return s.finish(ctx, req, identifier, s.degradedDeny(policy))
	}

	return s.finish(ctx, req, identifier, verdict)
}

// degradedDeny nega por indisponibilidade de enforcement em categoria fail-closed.
func (s *AdmissionService) degradedDeny(policy domain.Policy) domain.Verdict {
	now := s.now()
	idx := windowIndex(now, policy.Window)
	resetAt := windowResetAt(idx, policy.Window)
	return domain.Verdict{
		Allowed:    false,
		Reason:     domain.ReasonRateLimited,
		Policy:     policy,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: resetAt.Sub(now),
		Degraded:   true,
	}
}

func (s *AdmissionService) finish(ctx context.Context, req domain.AdmissionRequest, identifier string, verdict domain.Verdict) domain.Verdict {
	s.metrics.ObserveVerdict(verdict.Allowed, string(verdict.Reason), verdict.Degraded)

	if !verdict.Allowed {
		s.recordAudit(ctx, domain.AuditEvent{
			Identifier: identifier,
			Route:      req.Route,
			Reason:     verdict.Reason,
			Allowed:    false,
			At:         s.now(),
		})
		return verdict
	}

	if verdict.Policy.Category.Sensitive() && s.log != nil {
		s.log.Debugw("sensitive route allowed",
			"identifier", identifier,
			"route", req.Route,
			"category", verdict.Policy.Category,
			"remaining", verdict.Remaining,
		)
	}

	return verdict
}

func (s *AdmissionService) recordAudit(ctx context.Context, ev domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, ev); err != nil && s.log != nil {
		s.log.Warnw("audit sink failed", "identifier", ev.Identifier, "err", err)
	}
}
