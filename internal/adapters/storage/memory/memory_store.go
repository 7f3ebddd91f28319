// Package memory disponibiliza a implementação do storage em memória de processo.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
)

// Store é um Counter Store local protegido por mutex, com varredura periódica
// de entradas expiradas. Uma instância por processo; sem estado global.
type Store struct {
	mu       sync.Mutex
	counters map[string]*counterEntry
	blocks   map[string]time.Time

	stopChan chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

var _ ports.Storage = (*Store)(nil)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// Config parametriza o store em memória.
type Config struct {
	// SweepInterval controla a frequência da varredura de entradas expiradas.
	// Deve ser proporcional à menor janela configurada para limitar memória.
	SweepInterval time.Duration
}

func New(cfg Config) *Store {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	s := &Store{
		counters: make(map[string]*counterEntry),
		blocks:   make(map[string]time.Time),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}

	go s.sweepLoop(cfg.SweepInterval)

	return s
}

// Close interrompe a goroutine de varredura. Seguro chamar mais de uma vez.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

func (s *Store) Increment(_ context.Context, key string, window time.Duration) (domain.Counter, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counters[key]
	if !ok || !now.Before(entry.expiresAt) {
		// Janela ancorada no primeiro incremento; rollover descarta o contador.
		entry = &counterEntry{expiresAt: now.Add(window)}
		s.counters[key] = entry
	}

	entry.count++
	return domain.Counter{Count: entry.count, ResetAt: entry.expiresAt}, nil
}

func (s *Store) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

func (s *Store) IsBlocked(_ context.Context, key string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.blocks[key]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(s.blocks, key)
		return false, nil
	}
	return true, nil
}

func (s *Store) SetBlock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if duration <= 0 {
		delete(s.blocks, key)
		return nil
	}
	s.blocks[key] = s.now().Add(duration)
	return nil
}

// Len retorna o total de entradas vivas ou não varridas, para testes e inspeção.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.counters) + len(s.blocks)
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Store) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.counters {
		if !now.Before(entry.expiresAt) {
			delete(s.counters, key)
		}
	}
	for key, expiresAt := range s.blocks {
		if !now.Before(expiresAt) {
			delete(s.blocks, key)
		}
	}
}
