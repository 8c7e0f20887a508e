package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"travlr/models"
	"travlr/ratelimit"
	"travlr/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func issue(t *testing.T, tm *utils.TokenManager, role string) string {
	t.Helper()
	token, err := tm.GenerateJWT(&models.User{ID: primitive.NewObjectID(), Email: "user@travlr.com", Name: "User", Role: role})
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	tm := utils.NewTokenManager("secret", time.Hour)

	var seen models.Principal
	handler := AuthMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		seen = p
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Missing", "", http.StatusUnauthorized},
		{"WrongScheme", "Basic abc", http.StatusUnauthorized},
		{"NoToken", "Bearer ", http.StatusUnauthorized},
		{"Garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"OtherSecret", "Bearer " + issue(t, utils.NewTokenManager("other", time.Hour), models.RoleUser), http.StatusUnauthorized},
		{"Expired", "Bearer " + issue(t, utils.NewTokenManager("secret", -time.Minute), models.RoleUser), http.StatusUnauthorized},
		{"Valid", "Bearer " + issue(t, tm, models.RoleUser), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
	assert.Equal(t, "user@travlr.com", seen.Email)
}

func TestAdminMiddleware(t *testing.T) {
	tm := utils.NewTokenManager("secret", time.Hour)
	handler := AuthMiddleware(tm)(AdminMiddleware(okHandler))

	req := httptest.NewRequest("POST", "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tm, models.RoleUser))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest("POST", "/api/trips", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, tm, models.RoleAdmin))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	AdminMiddleware(okHandler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := mux.NewRouter()
	r.Use(RequestLogger(&logger))
	r.HandleFunc("/api/trips/{tripCode}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/trips/BCH01", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"route":"/api/trips/{tripCode}"`)
	assert.Contains(t, buf.String(), `"status":404`)

	req := httptest.NewRequest("GET", "/api/trips/BCH01", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	logger := zerolog.New(io.Discard)
	handler := Recovery(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"http://localhost:4200"})(okHandler)

	req := httptest.NewRequest("OPTIONS", "/api/trips", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/trips", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestThrottle(t *testing.T) {
	handler := NewThrottle(1, 2).Middleware(okHandler)

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/trips", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest("GET", "/api/trips", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type brokenCounter struct{}

func (brokenCounter) Count(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("down")
}

func (brokenCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("down")
}

func TestAttemptLimiter(t *testing.T) {
	logger := zerolog.New(io.Discard)
	limiter := &AttemptLimiter{
		Name:    "login",
		Max:     2,
		Window:  time.Minute,
		Message: "Too many login attempts. Please try again after 15 minutes.",
		Counter: ratelimit.NewMemoryCounter(),
		Logger:  &logger,
	}

	status := http.StatusUnauthorized
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, status, "nope")
	}))

	attempt := 0
	do := func() *httptest.ResponseRecorder {
		attempt++
		req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:41000"
		// a fresh forwarded address on every attempt must not reset the count
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", attempt))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// successful requests are not counted
	status = http.StatusOK
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do().Code)
	}

	status = http.StatusUnauthorized
	rec := do()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "2", rec.Header().Get("RateLimit-Remaining"))

	rec = do()
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("RateLimit-Remaining"))

	rec = do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))
	assert.JSONEq(t, `{"message":"Too many login attempts. Please try again after 15 minutes."}`, rec.Body.String())

	t.Run("CounterErrorsFailOpen", func(t *testing.T) {
		broken := &AttemptLimiter{Name: "login", Max: 1, Window: time.Minute, Counter: brokenCounter{}, Logger: &logger}
		rec := httptest.NewRecorder()
		broken.Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest("POST", "/api/login", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
