package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func setupAuthViper() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthViper()
	service := NewAuthService(db, nil)

	t.Run("successful registration", func(t *testing.T) {
		req := RegisterRequest{
			Username: "jdoe",
			Email:    "test@example.com",
			Password: "password123",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Username, req.Email, sqlmock.AnyArg(), "rider").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, req.Email, response.User.Email)
		assert.Equal(t, "rider", response.User.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email reports bad request", func(t *testing.T) {
		req := RegisterRequest{
			Username: "jdoe",
			Email:    "taken@example.com",
			Password: "password123",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(req.Username, req.Email, sqlmock.AnyArg(), "rider").
			WillReturnError(&pqUniqueViolation)

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/api/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		body, _ := json.Marshal(RegisterRequest{Username: "j", Email: "not-an-email", Password: "short"})
		r := httptest.NewRequest("POST", "/api/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthViper()
	service := NewAuthService(db, nil)

	t.Run("successful login", func(t *testing.T) {
		hashedPassword, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, username, email, password, role, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "created_at"}).
				AddRow(1, "jdoe", "test@example.com", hashedPassword, "rider", time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "password123"})
		r := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, 1, response.User.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		hashedPassword, err := hashPassword("password123")
		assert.NoError(t, err)

		mock.ExpectQuery("SELECT id, username, email, password, role, created_at FROM users").
			WithArgs("test@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "created_at"}).
				AddRow(1, "jdoe", "test@example.com", hashedPassword, "rider", time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "test@example.com", Password: "wrong-password"})
		r := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email, password, role, created_at FROM users").
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		body, _ := json.Marshal(LoginRequest{Email: "ghost@example.com", Password: "password123"})
		r := httptest.NewRequest("POST", "/api/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthViper()

	t.Run("hash verifies and stores no plaintext", func(t *testing.T) {
		hashed, err := hashPassword("correct horse battery staple")
		assert.NoError(t, err)
		assert.NotContains(t, hashed, "correct horse")
		assert.True(t, verifyPassword("correct horse battery staple", hashed))
		assert.False(t, verifyPassword("wrong password", hashed))
	})

	t.Run("same password hashes differently per salt", func(t *testing.T) {
		first, err := hashPassword("password123")
		assert.NoError(t, err)
		second, err := hashPassword("password123")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("garbage stored hash never verifies", func(t *testing.T) {
		assert.False(t, verifyPassword("password123", "not-a-hash"))
		assert.False(t, verifyPassword("password123", "a$b$c"))
	})
}

func TestAuthService_UserRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAuthService(db, nil)

	t.Run("resolves stored role", func(t *testing.T) {
		mock.ExpectQuery("SELECT role FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

		role, err := service.UserRole(context.Background(), 1)
		assert.NoError(t, err)
		assert.Equal(t, "admin", role)
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectQuery("SELECT role FROM users").
			WithArgs(2).
			WillReturnError(sql.ErrNoRows)

		_, err := service.UserRole(context.Background(), 2)
		assert.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}
