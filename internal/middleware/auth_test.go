package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lokapasar-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	mw := AuthMiddleware(testSecret)

	capture := func(gotID *uint, gotOK *bool) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*gotID, *gotOK = utils.GetUserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("ValidBearerToken", func(t *testing.T) {
		var gotID uint
		var gotOK bool

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
			"user_id": float64(42),
			"email":   "buyer@example.com",
		}))

		mw(capture(&gotID, &gotOK)).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, gotOK)
		assert.Equal(t, uint(42), gotID)
	})

	t.Run("CookiePreferredOverHeader", func(t *testing.T) {
		var gotID uint
		var gotOK bool

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, jwt.MapClaims{
			"user_id": float64(7),
		})})
		req.Header.Set("Authorization", "Bearer not-a-token")

		mw(capture(&gotID, &gotOK)).ServeHTTP(httptest.NewRecorder(), req)

		assert.True(t, gotOK)
		assert.Equal(t, uint(7), gotID)
	})

	t.Run("InvalidTokenPassesThroughAnonymous", func(t *testing.T) {
		var gotID uint
		var gotOK bool

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")

		rec := httptest.NewRecorder()
		mw(capture(&gotID, &gotOK)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, gotOK)
	})

	t.Run("NoToken", func(t *testing.T) {
		var gotID uint
		var gotOK bool

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mw(capture(&gotID, &gotOK)).ServeHTTP(httptest.NewRecorder(), req)

		assert.False(t, gotOK)
	})
}
