package services

import (
	"golang.org/x/time/rate"

	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

// storeFaultLogger registra falhas do counter store com throttling, para que
// uma indisponibilidade prolongada não inunde o log com uma linha por requisição.
type storeFaultLogger struct {
	log *observability.Logger
	lim *rate.Limiter
}

func newStoreFaultLogger(log *observability.Logger) *storeFaultLogger {
	return &storeFaultLogger{
		log: log,
		lim: rate.NewLimiter(rate.Limit(1), 5),
	}
}

func (f *storeFaultLogger) warn(op, identifier, route string, err error) {
	if f == nil || f.log == nil {
		return
	}
	if !f.lim.Allow() {
		return
	}
	f.log.Warnw("counter store unavailable, failing open",
		"op", op,
		"identifier", identifier,
		"route", route,
		"err", err,
	)
}
