// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
	"github.com/drumcap/hooklabs-elite-sub004/internal/core/ports"
	"github.com/drumcap/hooklabs-elite-sub004/internal/observability"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
	headerRetry     = "Retry-After"
)

// Options parametriza o middleware de admissão.
type Options struct {
	// PrincipalHeader é o header injetado pelo identity provider upstream
	// com o id verificado do principal.
	PrincipalHeader string

	// TrustedIdentifiers vão direto para ALLOW sem avaliação (caller interno).
	TrustedIdentifiers []string

	// TrustedNetworks em notação CIDR; loopback é sempre confiável.
	TrustedNetworks []string

	Metrics *observability.Metrics
	Logger  *observability.Logger
}

type denyBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewAdmissionMiddleware monta o estágio de admissão: extrai a identidade,
// aplica o allowlist e delega o restante do pipeline ao serviço.
func NewAdmissionMiddleware(admission ports.Admission, opts Options) func(http.Handler) http.Handler {
	trusted := make(map[string]struct{}, len(opts.TrustedIdentifiers))
	for _, id := range opts.TrustedIdentifiers {
		trusted[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	var networks []*net.IPNet
	for _, cidr := range opts.TrustedNetworks {
		if _, network, err := net.ParseCIDR(strings.TrimSpace(cidr)); err == nil {
			networks = append(networks, network)
		} else if opts.Logger != nil {
			opts.Logger.Warnw("ignoring invalid trusted network", "cidr", cidr, "err", err)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if admission == nil {
				next.ServeHTTP(w, r)
				return
			}

			identifier := extractIdentifier(r, opts.PrincipalHeader)
			clientIP := extractIP(r)

			if isBypassed(identifier, clientIP, trusted, networks) {
				if opts.Metrics != nil {
					opts.Metrics.Bypassed.Inc()
				}
				next.ServeHTTP(w, r)
				return
			}

			verdict := admission.Admit(r.Context(), domain.AdmissionRequest{
				Identifier: identifier,
				Route:      r.URL.Path,
				Method:     r.Method,
			})

			writeRateHeaders(w, verdict)

			if verdict.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			switch verdict.Reason {
			case domain.ReasonBlocked:
				writeDeny(w, http.StatusForbidden, denyBody{
					Error:   "forbidden",
					Message: "requests from this client are temporarily blocked",
					Code:    domain.CodeSecurityBlock,
				})
			default:
				w.Header().Set(headerRetry, strconv.Itoa(retryAfterSeconds(verdict)))
				writeDeny(w, http.StatusTooManyRequests, denyBody{
					Error:   "too many requests",
					Message: "you have reached the maximum number of requests allowed within this time frame",
					Code:    domain.CodeRateLimitExceeded,
				})
			}
		})
	}
}

// extractIdentifier deriva o ClientIdentifier: principal autenticado quando o
// upstream o injeta, senão a origem de rede. Vazio cai no bucket compartilhado.
func extractIdentifier(r *http.Request, principalHeader string) string {
	if principalHeader != "" {
		if principal := strings.TrimSpace(r.Header.Get(principalHeader)); principal != "" {
			return principal
		}
	}
	return extractIP(r)
}

func extractIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}

func isBypassed(identifier, clientIP string, trusted map[string]struct{}, networks []*net.IPNet) bool {
	if _, ok := trusted[strings.ToLower(strings.TrimSpace(identifier))]; ok {
		return true
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, network := range networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func writeRateHeaders(w http.ResponseWriter, verdict domain.Verdict) {
	if verdict.Policy.MaxRequests > 0 {
		w.Header().Set(headerLimit, strconv.Itoa(verdict.Policy.MaxRequests))
	}
	w.Header().Set(headerRemaining, strconv.Itoa(verdict.Remaining))
	if !verdict.ResetAt.IsZero() {
		w.Header().Set(headerReset, strconv.FormatInt(verdict.ResetAt.UnixMilli(), 10))
	}
}

func retryAfterSeconds(verdict domain.Verdict) int {
	secs := int(math.Ceil(verdict.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func writeDeny(w http.ResponseWriter, status int, body denyBody) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
