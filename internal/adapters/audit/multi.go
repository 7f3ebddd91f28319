package audit

import (
	"context"
	"errors"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
)

// MultiSink entrega o evento a todos os sinks, acumulando erros sem abortar.
type MultiSink struct {
	sinks []ports.AuditSink
}

var _ ports.AuditSink = (*MultiSink)(nil)

func NewMultiSink(sinks ...ports.AuditSink) *MultiSink {
	out := make([]ports.AuditSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) Record(ctx context.Context, ev domain.AuditEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
