// Package domain concentra entidades e estruturas centrais da camada de admissão.
package domain

import "time"

// Category agrupa rotas com o mesmo perfil de sensibilidade.
type Category string

const (
	CategoryDefault Category = "default"
	CategoryAuth    Category = "auth"
	CategoryPayment Category = "payment"
	CategoryBulk    Category = "bulk"
	CategoryHealth  Category = "health"
)

// Sensitive indica se decisões de ALLOW nesta categoria devem ser rastreadas.
func (c Category) Sensitive() bool {
	return c == CategoryAuth || c == CategoryPayment
}

// Policy define o limite de requisições para um prefixo de rota.
// Imutável após a construção do registry.
type Policy struct {
	RoutePrefix string
	Window      time.Duration
	MaxRequests int
	Category    Category
}

// RouteBucket é o componente de chave derivado do prefixo da política,
// compartilhado por todas as rotas que resolvem para ela.
func (p Policy) RouteBucket() string {
	if p.RoutePrefix == "" {
		return "default"
	}
	return p.RoutePrefix
}
