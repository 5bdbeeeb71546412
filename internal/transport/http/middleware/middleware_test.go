package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	userID = "65a1f0c2b3d4e5f6a7b8c901"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{"sub": sub, "exp": time.Now().Add(time.Hour).Unix()}
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuth(t *testing.T) {
	h := Auth(secret)(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims(userID)), http.StatusOK, userID},
		{"uppercase subject", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("65A1F0C2B3D4E5F6A7B8C901")), http.StatusOK, userID},
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims(userID)), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": userID, "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized, ""},
		{"bad subject", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims("42")), http.StatusUnauthorized, ""},
		{"alg none", "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims(userID)), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"success":false,"code":"UNAUTHORIZED","message":"`+messageFor(tt.header)+`"}`, rec.Body.String())
			}
		})
	}
}

func messageFor(header string) string {
	if header == "" || header == "Basic abc" {
		return "Missing or invalid token"
	}
	return "Invalid or expired token"
}

func TestRateLimitPerUser(t *testing.T) {
	rejected := 0
	h := RateLimit(2, func() { rejected++ })(echoUser())

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req = req.WithContext(WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(userID))
	assert.Equal(t, http.StatusOK, do(userID))
	assert.Equal(t, http.StatusTooManyRequests, do(userID))
	assert.Equal(t, http.StatusOK, do("65a1f0c2b3d4e5f6a7b8c902"))
	assert.Equal(t, 1, rejected)
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, nil)(echoUser())
	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/messages", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
