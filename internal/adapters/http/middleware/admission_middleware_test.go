package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drumcap/hooklabs-elite-sub004/internal/core/domain"
)

// stubAdmission returns a canned verdict and records what it was asked.
type stubAdmission struct {
	verdict domain.Verdict
	called  bool
	lastReq domain.AdmissionRequest
}

func (s *stubAdmission) Admit(_ context.Context, req domain.AdmissionRequest) domain.Verdict {
	s.called = true
	s.lastReq = req
	return s.verdict
}

func allowVerdict() domain.Verdict {
	return domain.Verdict{
		Allowed:   true,
		Policy:    domain.Policy{RoutePrefix: "/api", Window: time.Minute, MaxRequests: 10},
		Remaining: 7,
		ResetAt:   time.UnixMilli(120000),
	}
}

func serve(t *testing.T, stub *stubAdmission, opts Options, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	NewAdmissionMiddleware(stub, opts)(next).ServeHTTP(rec, r)
	return rec
}

func TestMiddleware_AllowAttachesRateHeaders(t *testing.T) {
	stub := &stubAdmission{verdict: allowVerdict()}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "203.0.113.9:4567"

	rec := serve(t, stub, Options{}, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Fatalf("expected limit header 10, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "7" {
		t.Fatalf("expected remaining header 7, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Reset"); got != "120000" {
		t.Fatalf("expected reset header in epoch ms, got %q", got)
	}
}

func TestMiddleware_RateLimitedReturns429WithRetryAfter(t *testing.T) {
	stub := &stubAdmission{verdict: domain.Verdict{
		Allowed:    false,
		Reason:     domain.ReasonRateLimited,
		Policy:     domain.Policy{RoutePrefix: "/api", Window: time.Minute, MaxRequests: 5},
		ResetAt:    time.UnixMilli(60000),
		RetryAfter: 42500 * time.Millisecond,
	}}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "203.0.113.9:4567"

	rec := serve(t, stub, Options{}, r)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "43" {
		t.Fatalf("expected Retry-After rounded up to 43, got %q", got)
	}

	var body denyBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != domain.CodeRateLimitExceeded {
		t.Fatalf("expected code RATE_LIMIT_EXCEEDED, got %q", body.Code)
	}
	if body.Error == "" || body.Message == "" {
		t.Fatalf("expected error and message fields, got %+v", body)
	}
}

func TestMiddleware_BlockedReturns403(t *testing.T) {
	stub := &stubAdmission{verdict: domain.Verdict{
		Allowed: false,
		Reason:  domain.ReasonBlocked,
		Policy:  domain.Policy{RoutePrefix: "/api", Window: time.Minute, MaxRequests: 5},
	}}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "203.0.113.9:4567"

	rec := serve(t, stub, Options{}, r)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body denyBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != domain.CodeSecurityBlock {
		t.Fatalf("expected code SECURITY_BLOCK, got %q", body.Code)
	}
}

func TestMiddleware_LoopbackBypassesPipeline(t *testing.T) {
	stub := &stubAdmission{verdict: domain.Verdict{Allowed: false, Reason: domain.ReasonBlocked}}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "127.0.0.1:9999"

	rec := serve(t, stub, Options{}, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected bypass to reach the handler, got %d", rec.Code)
	}
	if stub.called {
		t.Fatalf("expected admission service to be skipped for loopback")
	}
}

func TestMiddleware_TrustedNetworkBypasses(t *testing.T) {
	stub := &stubAdmission{verdict: domain.Verdict{Allowed: false, Reason: domain.ReasonBlocked}}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "10.1.2.3:9999"

	rec := serve(t, stub, Options{TrustedNetworks: []string{"10.0.0.0/8"}}, r)

	if rec.Code != http.StatusOK || stub.called {
		t.Fatalf("expected trusted network bypass, code=%d called=%v", rec.Code, stub.called)
	}
}

func TestMiddleware_TrustedIdentifierBypasses(t *testing.T) {
	stub := &stubAdmission{verdict: domain.Verdict{Allowed: false, Reason: domain.ReasonBlocked}}

	r := httptest.NewRequest("GET", "/api/posts", nil)
	r.RemoteAddr = "203.0.113.9:4567"
	r.Header.Set("X-Principal-Id", "internal-batch")

	opts := Options{
		PrincipalHeader:    "X-Principal-Id",
		TrustedIdentifiers: []string{"internal-batch"},
	}

	rec := serve(t, stub, opts, r)

	if rec.Code != http.StatusOK || stub.called {
		t.Fatalf("expected trusted identifier bypass, code=%d called=%v", rec.Code, stub.called)
	}
}

func TestMiddleware_IdentityExtractionPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(r *http.Request)
		identifier string
	}{
		{
			name: "principal header wins",
			setup: func(r *http.Request) {
				r.Header.Set("X-Principal-Id", "user-42")
				r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
			},
			identifier: "user-42",
		},
		{
			name: "first forwarded address",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
			},
			identifier: "198.51.100.7",
		},
		{
			name: "real ip header",
			setup: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "198.51.100.8")
			},
			identifier: "198.51.100.8",
		},
		{
			name:       "remote addr host",
			setup:      func(_ *http.Request) {},
			identifier: "203.0.113.9",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAdmission{verdict: allowVerdict()}

			r := httptest.NewRequest("GET", "/api/posts", nil)
			r.RemoteAddr = "203.0.113.9:4567"
			tc.setup(r)

			serve(t, stub, Options{PrincipalHeader: "X-Principal-Id"}, r)

			if !stub.called {
				t.Fatalf("expected admission service to be consulted")
			}
			if stub.lastReq.Identifier != tc.identifier {
				t.Fatalf("expected identifier %q, got %q", tc.identifier, stub.lastReq.Identifier)
			}
		})
	}
}

func TestMiddleware_PassesRouteAndMethod(t *testing.T) {
	stub := &stubAdmission{verdict: allowVerdict()}

	r := httptest.NewRequest("POST", "/api/payments/charge", nil)
	r.RemoteAddr = "203.0.113.9:4567"

	serve(t, stub, Options{}, r)

	if stub.lastReq.Route != "/api/payments/charge" || stub.lastReq.Method != "POST" {
		t.Fatalf("unexpected admission request: %+v", stub.lastReq)
	}
}
