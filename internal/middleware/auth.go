package middleware

import (
	"net/http"
	"strings"

	"lokapasar-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractAccessToken prefers the access_token cookie, then the Authorization
// header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// AuthMiddleware parses the caller's bearer token and injects the user ID
// into the request context. Requests without a valid token pass through
// anonymous; handlers that need an identity reject those themselves.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			})
			if err != nil || !token.Valid {
				next.ServeHTTP(w, r)
				return
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				ctx := r.Context()
				if uid, ok := claims["user_id"].(float64); ok {
					ctx = utils.WithUserID(ctx, uint(uid))
				}
				if email, ok := claims["email"].(string); ok {
					ctx = utils.WithUserEmail(ctx, email)
				}
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}
