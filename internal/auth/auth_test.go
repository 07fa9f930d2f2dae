package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/RajshekharX12/as/internal/auth/config"
)

func newTestAuth() Auth {
	return NewAuth(config.Config{JWTSecret: "secret", JWTTTL: time.Hour}, []string{"100001"})
}

func TestToken(t *testing.T) {
	a := newTestAuth()

	token, err := a.BuildToken("100001")
	require.NoError(t, err)
	userCode, err := a.GetUserCode(token)
	require.NoError(t, err)
	require.Equal(t, "100001", userCode)

	// чужой ключ
	other := NewAuth(config.Config{JWTSecret: "other", JWTTTL: time.Hour}, nil)
	_, err = other.GetUserCode(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewAuth(config.Config{JWTSecret: "secret", JWTTTL: -time.Minute}, nil)
	token, err = expired.BuildToken("100001")
	require.NoError(t, err)
	_, err = a.GetUserCode(token)
	require.ErrorIs(t, err, ErrExpiredToken)

	// другой алгоритм подписи
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserCode: "100001"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.GetUserCode(none)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	a := newTestAuth()
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get(HeaderUserCodeKey)))
	}))

	allowed, err := a.BuildToken("100001")
	require.NoError(t, err)
	stranger, err := a.BuildToken("100002")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "no token", status: http.StatusUnauthorized},
		{name: "bearer", header: "Bearer " + allowed, status: http.StatusOK, body: "100001"},
		{name: "cookie", cookie: allowed, status: http.StatusOK, body: "100001"},
		{name: "garbage", header: "Bearer abc", status: http.StatusUnauthorized},
		{name: "not allowed", header: "Bearer " + stranger, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/engine/status", nil)
			// подмена заголовка клиентом не проходит
			r.Header.Set(HeaderUserCodeKey, "100001")
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: cookieUserToken, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				require.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
