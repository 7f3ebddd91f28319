package domain

import "time"

// Reason identifica o motivo de uma negação.
type Reason string

const (
	ReasonBlocked     Reason = "blocked"
	ReasonRateLimited Reason = "rate_limited"
)

// Códigos expostos no corpo JSON das respostas de negação.
const (
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeSecurityBlock     = "SECURITY_BLOCK"
)

// AdmissionRequest descreve uma requisição a ser avaliada pelo pipeline.
type AdmissionRequest struct {
	Identifier string
	Route      string
	Method     string
}

// Verdict é o resultado terminal do pipeline de admissão.
type Verdict struct {
	Allowed    bool
	Reason     Reason
	Policy     Policy
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration

	// Degraded marca decisões tomadas em fail-open por falha de infraestrutura.
	Degraded bool
}

// Counter é o resultado de um incremento atômico no Counter Store.
type Counter struct {
	Count   int64
	ResetAt time.Time
}

// AuditEvent registra uma decisão do pipeline para o audit sink.
type AuditEvent struct {
	Identifier string
	Route      string
	Reason     Reason
	Allowed    bool
	At         time.Time
}
