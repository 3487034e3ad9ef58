package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protected(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || user == nil {
			t.Fatalf("expected user in context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminMiddlewareRejectsMissingToken(t *testing.T) {
	handler := AdminMiddleware("secret", "operator")(protected(t))

	req := httptest.NewRequest(http.MethodGet, "/api/staging", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAdminMiddlewareRejectsWrongToken(t *testing.T) {
	handler := AdminMiddleware("secret", "operator")(protected(t))

	req := httptest.NewRequest(http.MethodGet, "/api/staging", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAdminMiddlewareRejectsTokenPrefix(t *testing.T) {
	handler := AdminMiddleware("secret", "operator")(protected(t))

	for _, presented := range []string{"secre", "secrets"} {
		req := httptest.NewRequest(http.MethodGet, "/api/staging", nil)
		req.Header.Set("Authorization", "Bearer "+presented)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401 for token %q, got %d", presented, rr.Code)
		}
	}
}

func TestAdminMiddlewareInjectsOperator(t *testing.T) {
	var username string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok {
			t.Fatalf("expected user in context")
		}
		username = user.Username
	})

	handler := AdminMiddleware("secret", "operator")(inner)

	req := httptest.NewRequest(http.MethodGet, "/api/staging", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if username != "operator" {
		t.Fatalf("expected operator user, got %q", username)
	}
}

func TestAdminMiddlewareOpenWithoutToken(t *testing.T) {
	handler := AdminMiddleware("", "operator")(protected(t))

	req := httptest.NewRequest(http.MethodGet, "/api/staging", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected open surface with empty token, got %d", rr.Code)
	}
}
