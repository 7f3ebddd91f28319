package ports

import (
	"context"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

// Admission avalia uma requisição e produz o veredito terminal do pipeline.
type Admission interface {
	Admit(ctx context.Context, req domain.AdmissionRequest) domain.Verdict
}

// AuditSink recebe decisões do pipeline. Implementações devem ser best-effort:
// erro de sink nunca derruba a requisição.
type AuditSink interface {
	Record(ctx context.Context, ev domain.AuditEvent) error
}
