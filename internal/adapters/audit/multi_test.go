package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

type fakeSink struct {
	events int
	err    error
}

func (f *fakeSink) Record(_ context.Context, _ domain.AuditEvent) error {
	f.events++
	return f.err
}

func TestMultiSink_DeliversToAllSinks(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{err: errors.New("sink b down")}
	c := &fakeSink{}

	multi := NewMultiSink(a, nil, b, c)

	err := multi.Record(context.Background(), domain.AuditEvent{
		Identifier: "x",
		Route:      "/api/echo",
		Reason:     domain.ReasonRateLimited,
		At:         time.Now(),
	})

	if err == nil {
		t.Fatalf("expected joined error from failing sink")
	}
	if a.events != 1 || b.events != 1 || c.events != 1 {
		t.Fatalf("expected every sink to receive the event, got %d/%d/%d", a.events, b.events, c.events)
	}
}

func TestLoggerSink_NeverFails(t *testing.T) {
	sink := NewLoggerSink(observability.NewNopLogger())

	if err := sink.Record(context.Background(), domain.AuditEvent{Identifier: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
