package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jubmeng/rainbow/pkg/logger"
)

func fakeValidator(token string) (*Claims, error) {
	if token == "good" {
		return &Claims{UserID: "user-1", Username: "alice"}, nil
	}
	return nil, errors.New("bad token")
}

func captureClaims(got **Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok {
			*got = c
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header format"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid authorization header format"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"case-insensitive scheme", "bearer good", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Claims
			req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(fakeValidator)(captureClaims(&got)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Nil(t, got)
				var body struct {
					Error struct{ Code, Message string }
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
				assert.Equal(t, tt.message, body.Error.Message)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, "user-1", got.UserID)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var got *Claims
	h := OptionalAuth(fakeValidator)(captureClaims(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestAuth_TagsRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("test", "info", &buf)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-1", UserIDFromContext(r.Context()))
		assert.Equal(t, "user-1", logger.UserIDFromContext(r.Context()))
		logger.FromContext(r.Context()).Info("inside")
	})
	h := RequestLogger(base)(Auth(fakeValidator)(inner))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "user-1", line["user_id"])
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	assert.Empty(t, UserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
