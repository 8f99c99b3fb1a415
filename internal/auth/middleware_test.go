package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func setupMiddleware(t *testing.T) (*Store, http.Handler, *bool) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	reached := false
	handler := Middleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	return store, handler, &reached
}

func TestMiddleware_ValidToken(t *testing.T) {
	store, _, _ := setupMiddleware(t)
	_, tokenID, err := store.CreateToken("render-farm", ScopeOperator, nil)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	// Separate handler so the auth context can be inspected
	handler := Middleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := FromContext(r.Context())
		if authCtx == nil {
			t.Error("auth context should be set after middleware")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if authCtx.Token.Scope != ScopeOperator {
			t.Errorf("scope = %q, want %q", authCtx.Token.Scope, ScopeOperator)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/mcp", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+tokenID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	_, handler, reached := setupMiddleware(t)

	req := httptest.NewRequest("POST", "/mcp", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if *reached {
		t.Error("handler should not run without credentials")
	}

	// 401 body is a JSON-RPC error document
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("401 body is not JSON: %v", err)
	}
	if resp["error"] == nil {
		t.Error("401 body should contain an error field")
	}
}

func TestMiddleware_RejectedTokens(t *testing.T) {
	store, handler, reached := setupMiddleware(t)

	expired := time.Now().Add(-time.Hour)
	_, expiredID, err := store.CreateToken("expired", ScopeAdmin, &expired)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"unknown token", "Bearer bmc_0000000000000000"},
		{"expired token", "Bearer " + expiredID},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"no bearer prefix", "bmc_0000000000000000"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*reached = false
			req := httptest.NewRequest("POST", "/mcp", http.NoBody)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if *reached {
				t.Error("handler should not run")
			}
		})
	}
}

func TestRateLimitMiddleware_FallsBackToRemoteAddr(t *testing.T) {
	limiter := NewRateLimiter(0.01, 1)
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/mcp", http.NoBody)
	req.RemoteAddr = "192.168.1.1:12345"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestRateLimitMiddleware_KeysByTokenID(t *testing.T) {
	limiter := NewRateLimiter(0.01, 1)
	handler := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(tokenID string) int {
		req := httptest.NewRequest("POST", "/mcp", http.NoBody)
		req.RemoteAddr = "192.168.1.1:12345"
		authCtx := &AuthContext{Type: AuthTypeToken, Token: &Token{ID: tokenID}}
		req = req.WithContext(WithContext(req.Context(), authCtx))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("bmc_first"); code != http.StatusOK {
		t.Errorf("first token status = %d, want 200", code)
	}
	if code := send("bmc_first"); code != http.StatusTooManyRequests {
		t.Errorf("repeat of first token status = %d, want 429", code)
	}
	// Same remote addr, different token: separate bucket
	if code := send("bmc_second"); code != http.StatusOK {
		t.Errorf("second token status = %d, want 200", code)
	}
}

func Test_maskToken(t *testing.T) {
	tests := []struct {
		name    string
		tokenID string
		want    string
	}{
		{"short token", "abc", "***"},
		{"normal token", "bmc_1234567890abcdefghij", "bmc_1234...ghij"},
		{"exact 12 chars", "123456789012", "***"},
		{"13 chars", "1234567890123", "12345678...0123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskToken(tt.tokenID); got != tt.want {
				t.Errorf("maskToken() = %v, want %v", got, tt.want)
			}
		})
	}
}
