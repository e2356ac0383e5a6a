package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func signTestToken(t *testing.T, userID int, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(viper.GetString("jwt.secret_key")))
	assert.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")
	InitAuthMiddleware(nil)

	var gotUserID int
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, gotOK = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token sets user in context", func(t *testing.T) {
		token := signTestToken(t, 42, time.Hour)

		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gotOK)
		assert.Equal(t, 42, gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, 42, -time.Hour)

		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 42,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("attacker-secret"))
		assert.NoError(t, err)

		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("blacklisted token is rejected", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		InitAuthMiddleware(redisClient)
		defer InitAuthMiddleware(nil)

		token := signTestToken(t, 42, time.Hour)
		redisMock.ExpectExists("blacklist:" + token).SetVal(1)

		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unlisted token passes the blacklist check", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		InitAuthMiddleware(redisClient)
		defer InitAuthMiddleware(nil)

		token := signTestToken(t, 7, time.Hour)
		redisMock.ExpectExists("blacklist:" + token).SetVal(0)

		r := httptest.NewRequest("GET", "/api/user/pass", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		AuthMiddleware(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 7, gotUserID)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
