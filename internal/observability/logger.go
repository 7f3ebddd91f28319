// Package observability agrupa logging estruturado e métricas da camada de admissão.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embrulha o SugaredLogger do zap para não vazar o zap nos demais pacotes.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger cria um logger de produção no nível configurado ("debug", "info", ...).
// Nível desconhecido cai em info.
func NewLogger(level string) *Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return &Logger{l.Sugar()}
}

// NewNopLogger retorna um logger que descarta tudo, útil em testes.
func NewNopLogger() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

func (l *Logger) Sync() error { return l.SugaredLogger.Sync() }
