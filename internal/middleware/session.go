// Package middleware содержит HTTP middleware сервиса клиентской вовлечённости.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const customerIDKey contextKey = "customerID"

const (
	sessionCookieName = "session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

// Session выдаёт и проверяет подписанный cookie сессии дашборда клиента.
// Cookie подтверждает только то, что сервис выполнил вход, а не личность клиента.
type Session struct {
	secretKey []byte
}

// NewSession создаёт Session с указанным секретом. Пустой секрет заменяется случайным,
// и cookie перестают быть действительными после перезапуска.
func NewSession(secret string) *Session {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-session-key")
		}
	}

	return &Session{
		secretKey: key,
	}
}

// Middleware проверяет cookie сессии и добавляет идентификатор клиента в контекст запроса.
func (s *Session) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		customerID, ok := s.parse(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), customerIDKey, customerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetCookie устанавливает cookie сессии для клиента.
func (s *Session) SetCookie(w http.ResponseWriter, customerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    customerID + "." + s.sign(customerID),
		Path:     "/",
		Expires:  time.Now().Add(sessionCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Session) sign(customerID string) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write([]byte(customerID))
	return hex.EncodeToString(mac.Sum(nil))
}

// parse разбирает значение cookie. Идентификатор может содержать точки,
// поэтому подпись отделяется по последней точке.
func (s *Session) parse(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}

	customerID, signature := value[:i], value[i+1:]
	if !hmac.Equal([]byte(signature), []byte(s.sign(customerID))) {
		return "", false
	}

	return customerID, true
}

// CustomerIDFromContext извлекает идентификатор клиента из контекста запроса.
func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(customerIDKey).(string)
	return id, ok
}
