package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

// PolicyRegistry resolve a política efetiva de uma rota por longest-prefix-match.
// Construído na inicialização e somente leitura depois disso.
type PolicyRegistry struct {
	policies []domain.Policy
	fallback domain.Policy
}

// NewPolicyRegistry valida e ordena as políticas por tamanho de prefixo decrescente,
// de modo que a primeira correspondência seja sempre a mais específica.
func NewPolicyRegistry(fallback domain.Policy, policies []domain.Policy) (*PolicyRegistry, error) {
	if err := validatePolicy(fallback); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}

	sorted := make([]domain.Policy, len(policies))
	copy(sorted, policies)

	for _, p := range sorted {
		if p.RoutePrefix == "" {
			return nil, fmt.Errorf("route policy must have a prefix")
		}
		if err := validatePolicy(p); err != nil {
			return nil, fmt.Errorf("policy %q: %w", p.RoutePrefix, err)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].RoutePrefix) > len(sorted[j].RoutePrefix)
	})

	return &PolicyRegistry{policies: sorted, fallback: fallback}, nil
}

// Resolve retorna a política do prefixo mais longo que casa com a rota,
// ou a política default quando nenhum prefixo casa.
func (r *PolicyRegistry) Resolve(route string) domain.Policy {
	for _, p := range r.policies {
		if strings.HasPrefix(route, p.RoutePrefix) {
			return p
		}
	}
	return r.fallback
}

// Fallback expõe a política default aplicada a rotas sem override.
func (r *PolicyRegistry) Fallback() domain.Policy {
	return r.fallback
}

// ShortestWindow retorna a menor janela configurada, usada para dimensionar
// o intervalo de varredura do store em memória.
func (r *PolicyRegistry) ShortestWindow() time.Duration {
	shortest := r.fallback.Window
	for _, p := range r.policies {
		if p.Window < shortest {
			shortest = p.Window
		}
	}
	return shortest
}

func validatePolicy(p domain.Policy) error {
	if p.MaxRequests <= 0 || p.Window <= 0 {
		return fmt.Errorf("window and max requests must be positive")
	}
	return nil
}
