package services

import (
	"context"
	"fmt"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

// AbuseConfig parametriza o detector: limiar absoluto dentro da janela de
// observação e duração do bloqueio quando o limiar é ultrapassado.
type AbuseConfig struct {
	Threshold     int
	Window        time.Duration
	BlockDuration time.Duration
}

// AbuseDetector mantém um contador de suspeita por identificador, independente
// das políticas por rota. A janela é ancorada na primeira requisição e sofre
// hard reset quando expira; não há decaimento gradual.
type AbuseDetector struct {
	storage ports.Storage
	cfg     AbuseConfig
	log     *observability.Logger
	faults  *storeFaultLogger
}

func NewAbuseDetector(storage ports.Storage, cfg AbuseConfig, log *observability.Logger) (*AbuseDetector, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Threshold <= 0 || cfg.Window <= 0 || cfg.BlockDuration <= 0 {
		return nil, fmt.Errorf("abuse config must have positive values")
	}
	return &AbuseDetector{
		storage: storage,
		cfg:     cfg,
		log:     log,
		faults:  newStoreFaultLogger(log),
	}, nil
}

// IsBlocked consulta o block list de forma preguiçosa: a entrada vale enquanto
// now < expiresAt, sem depender de timers em memória.
// Falha do store degrada para não-bloqueado.
func (d *AbuseDetector) IsBlocked(ctx context.Context, identifier string) (blocked, degraded bool) {
	blocked, err := d.storage.IsBlocked(ctx, blockKey(identifier))
	if err != nil {
		d.faults.warn("is_blocked", identifier, "", err)
		return false, true
	}
	return blocked, false
}

// Observe contabiliza a requisição no contador de suspeita. A requisição que
// ultrapassa o limiar é ela própria negada: o bloqueio é criado e o contador
// de suspeita é descartado.
func (d *AbuseDetector) Observe(ctx context.Context, identifier string) (blocked, degraded bool) {
	counter, err := d.storage.Increment(ctx, abuseKey(identifier), d.cfg.Window)
	if err != nil {
		d.faults.warn("observe", identifier, "", err)
		return false, true
	}

	if int(counter.Count) <= d.cfg.Threshold {
		return false, false
	}

	if err := d.storage.SetBlock(ctx, blockKey(identifier), d.cfg.BlockDuration); err != nil {
		// A decisão de negar esta requisição vale mesmo sem persistir o bloqueio.
		d.faults.warn("set_block", identifier, "", err)
		return true, true
	}

	if err := d.storage.Reset(ctx, abuseKey(identifier)); err != nil {
		d.faults.warn("reset", identifier, "", err)
	}

	if d.log != nil {
		d.log.Warnw("identifier blocked for abuse",
			"identifier", identifier,
			"count", counter.Count,
			"threshold", d.cfg.Threshold,
			"block_duration", d.cfg.BlockDuration,
		)
	}

	return true, false
}
