package api

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/viper"
)

// Claims is the JWT payload issued on login.
type Claims struct {
	jwt.RegisteredClaims
}

// ensureJWTKey loads the HS256 signing key from the store, generating and
// persisting a fresh one on first run.
func ensureJWTKey(store storage.Store) ([]byte, error) {
	encoded, ok, err := store.GetItem(storage.KeyJWTSigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT key: %w", err)
	}
	if ok {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode JWT key: %w", err)
		}
		return key, nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate JWT key: %w", err)
	}
	if err := store.SetItem(storage.KeyJWTSigningKey, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("failed to persist JWT key: %w", err)
	}
	return key, nil
}

func (a *API) issueToken(lifetime time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtKey)
}

// CORSMiddleware answers preflights and stamps the configured origin.
func (a *API) CORSMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", viper.GetString("allowed_origin"))
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// JWTMiddleware rejects requests without a valid bearer token.
func (a *API) JWTMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: Authorization header missing", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Unauthorized: Invalid token format", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.jwtKey, nil
		})
		if err != nil {
			if validationErr, ok := err.(*jwt.ValidationError); ok && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		if !token.Valid {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// LoggingMiddleware records method, path and duration of every request.
func (a *API) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request processed: ", r.Method, " ", r.URL.Path, " in ", time.Since(start))
	}
}

// ErrorMiddleware converts handler panics into 500 responses.
func (a *API) ErrorMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic in handler: ", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	}
}

// ApplyMiddleware wraps a handler in the given middleware, outermost last.
func ApplyMiddleware(h http.HandlerFunc, middleware ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}
