// Package audit disponibiliza sinks de auditoria para as decisões do pipeline.
package audit

import (
	"context"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

// LoggerSink registra cada negação no log estruturado.
type LoggerSink struct {
	log *observability.Logger
}

var _ ports.AuditSink = (*LoggerSink)(nil)

func NewLoggerSink(log *observability.Logger) *LoggerSink {
	return &LoggerSink{log: log}
}

func (s *LoggerSink) Record(_ context.Context, ev domain.AuditEvent) error {
	if s.log == nil {
		return nil
	}
	s.log.Infow("request denied",
		"identifier", ev.Identifier,
		"route", ev.Route,
		"reason", ev.Reason,
		"at", ev.At,
	)
	return nil
}
