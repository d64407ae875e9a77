package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/craftline/marketplace/internal/models"
	"github.com/craftline/marketplace/internal/services"
)

type accountFieldType string

const accountField accountFieldType = "accountField"

type AuthMiddlewareConfig struct {
	excludePaths []string
}

func AuthMiddleware() *AuthMiddlewareConfig {
	return &AuthMiddlewareConfig{}
}

func (a *AuthMiddlewareConfig) WithExcludedPaths(paths ...string) *AuthMiddlewareConfig {
	a.excludePaths = paths
	return a
}

// Middleware validates the bearer token and attaches the resolved account
// to the request context. The account's stored role is authoritative; the
// token's role claim is never trusted on its own.
func (a *AuthMiddlewareConfig) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range a.excludePaths {
			if strings.HasPrefix(r.URL.Path, path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		authService := GetServiceFromContext[models.AuthService](w, r, AuthServiceKey)
		jwtService := GetServiceFromContext[models.JWTService](w, r, JwtServiceKey)

		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			http.Error(w, "Bearer token is empty", http.StatusUnauthorized)
			return
		}

		token, err := (*jwtService).ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenIsInvalid) {
				http.Error(w, "Token is invalid", http.StatusUnauthorized)
				return
			}

			if errors.Is(err, services.ErrTokenIsExpired) {
				http.Error(w, "Token is expired", http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during validating token: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		login, err := token.Claims.GetSubject()
		if err != nil {
			http.Error(w, fmt.Sprintf("Error occurred during reading sub claim: %s", err.Error()), http.StatusUnauthorized)
			return
		}

		account, err := (*authService).GetAccount(r.Context(), login)
		if err != nil {
			if errors.Is(err, services.ErrAccountIsNotExist) {
				http.Error(w, fmt.Sprintf("Account with login %s does not exist", login), http.StatusConflict)
				return
			}

			http.Error(w, fmt.Sprintf("Error occurred during resolving account: %s", err.Error()), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountField, account)))
	})
}

// GetAccountFromContext retrieves the authenticated account.
func GetAccountFromContext(w http.ResponseWriter, r *http.Request) *models.Account {
	account, ok := r.Context().Value(accountField).(*models.Account)

	if !ok {
		http.Error(w, "Could not retrieve account from context", http.StatusInternalServerError)
		return nil
	}

	return account
}
