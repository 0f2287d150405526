package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSession_WithValidCookie(t *testing.T) {
	s := NewSession("test-secret")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		id, ok := CustomerIDFromContext(r.Context())
		if !ok {
			t.Fatalf("customer id not in context")
		}
		if id != "3f2b1c4a-9d8e" {
			t.Fatalf("customer id from context = %q, want 3f2b1c4a-9d8e", id)
		}
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/me", nil)

	s.SetCookie(w, "3f2b1c4a-9d8e")
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no cookies set by SetCookie")
	}

	r.AddCookie(cookies[0])

	s.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestSession_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "no signature", cookie: &http.Cookie{Name: sessionCookieName, Value: "abc"}},
		{name: "forged signature", cookie: &http.Cookie{Name: sessionCookieName, Value: "abc.deadbeef"}},
		{name: "empty id", cookie: &http.Cookie{Name: sessionCookieName, Value: ".deadbeef"}},
	}

	s := NewSession("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}

			s.Middleware(next).ServeHTTP(w, r)

			if w.Result().StatusCode != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
			}
		})
	}
}

func TestSession_OtherSecretRejected(t *testing.T) {
	issuer := NewSession("secret-a")
	verifier := NewSession("secret-b")

	w := httptest.NewRecorder()
	issuer.SetCookie(w, "c1")

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.AddCookie(w.Result().Cookies()[0])

	rec := httptest.NewRecorder()
	verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(rec, r)

	if rec.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusUnauthorized)
	}
}
