package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/RajshekharX12/as/internal/auth/config"
)

type Auth interface {
	BuildToken(userID string) (string, error)
	GetUserCode(token string) (string, error)
	Middleware(h http.Handler) http.Handler
}

const (
	// заголовок, в который middleware кладёт id пользователя
	HeaderUserCodeKey = "X-User-Code"
	cookieUserToken   = "autobuyUserToken"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
	UserCode string `json:"user"`
}

type auth struct {
	secret []byte
	ttl    time.Duration
	users  []string
}

// NewAuth; users - пользователи, которым разрешено управление
func NewAuth(cfg config.Config, users []string) Auth {
	return &auth{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTTTL,
		users:  users,
	}
}

func (a *auth) BuildToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		UserCode: userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *auth) GetUserCode(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid || claims.UserCode == "" {
		return "", ErrInvalidToken
	}
	return claims.UserCode, nil
}

func (a *auth) Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// получение id пользователя
		userCode, err := a.getUserCode(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if !slices.Contains(a.users, userCode) {
			http.Error(w, "user not allowed", http.StatusForbidden)
			return
		}

		// записываем
		r.Header.Set(HeaderUserCodeKey, userCode)

		// передаём управление хендлеру
		h.ServeHTTP(w, r)
	})
}

// токен из заголовка Authorization или из куки
func (a *auth) getUserCode(r *http.Request) (string, error) {
	var token string
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	} else if tokenCookie, err := r.Cookie(cookieUserToken); err == nil {
		token = tokenCookie.Value
	}
	if token == "" {
		return "", ErrNoToken
	}
	return a.GetUserCode(token)
}
