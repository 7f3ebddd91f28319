// Package services implementa a lógica central da camada de admissão:
// avaliação de janela fixa, detecção de abuso e orquestração do pipeline.
package services

import (
	"fmt"
	"strings"
	"time"
)

func normalizeIdentifier(identifier string) string {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return "unknown"
	}
	return identifier
}

func counterKey(identifier, routeBucket string, windowIndex int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", identifier, routeBucket, windowIndex)
}

func abuseKey(identifier string) string {
	return fmt.Sprintf("abuse:%s", identifier)
}

func blockKey(identifier string) string {
	return fmt.Sprintf("block:%s", identifier)
}

// windowIndex calcula o índice da janela fixa corrente.
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixMilli() / window.Milliseconds()
}

// windowResetAt é o instante em que a janela de índice idx termina.
func windowResetAt(idx int64, window time.Duration) time.Time {
	return time.UnixMilli((idx + 1) * window.Milliseconds())
}
