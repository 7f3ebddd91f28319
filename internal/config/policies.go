package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

type policyFile struct {
	Policies []policyEntry `yaml:"policies"`
}

type policyEntry struct {
	Prefix      string `yaml:"prefix"`
	WindowMs    int64  `yaml:"window_ms"`
	MaxRequests int    `yaml:"max_requests"`
	Category    string `yaml:"category"`
}

// loadPolicies lê a tabela de políticas por rota de um arquivo YAML.
// Caminho vazio cai na tabela embutida com as categorias representativas.
func loadPolicies(path string) ([]domain.Policy, error) {
	if path == "" {
		return defaultPolicies(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}

	policies := make([]domain.Policy, 0, len(file.Policies))
	for _, entry := range file.Policies {
		if entry.Prefix == "" {
			return nil, fmt.Errorf("policy entry without prefix")
		}
		category := domain.Category(entry.Category)
		if category == "" {
			category = domain.CategoryDefault
		}
		policies = append(policies, domain.Policy{
			RoutePrefix: entry.Prefix,
			Window:      time.Duration(entry.WindowMs) * time.Millisecond,
			MaxRequests: entry.MaxRequests,
			Category:    category,
		})
	}

	return policies, nil
}

// defaultPolicies cobre as categorias de rota da aplicação: autenticação com
// teto baixo em janela curta, pagamentos com teto muito baixo em janela longa,
// geração em lote com teto moderado e health check praticamente isento.
func defaultPolicies() []domain.Policy {
	return []domain.Policy{
		{RoutePrefix: "/api/auth", Window: time.Minute, MaxRequests: 10, Category: domain.CategoryAuth},
		{RoutePrefix: "/api/payments", Window: 10 * time.Minute, MaxRequests: 5, Category: domain.CategoryPayment},
		{RoutePrefix: "/api/generate", Window: time.Minute, MaxRequests: 30, Category: domain.CategoryBulk},
		{RoutePrefix: "/healthz", Window: time.Minute, MaxRequests: 100000, Category: domain.CategoryHealth},
	}
}
