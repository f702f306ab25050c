package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jubmeng/rainbow/internal/auth"
	"github.com/jubmeng/rainbow/internal/domain"
	"github.com/jubmeng/rainbow/internal/service"
	"github.com/jubmeng/rainbow/pkg/health"
	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) CreateWithAggregate(ctx context.Context, review *domain.Review) (domain.Aggregate, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.Aggregate), args.Error(1)
}

func (m *mockReviewRepo) ListByKind(ctx context.Context, kind domain.ProductKind, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, kind, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

type mockListingRepo struct {
	mock.Mock
}

func (m *mockListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockListingRepo) Get(ctx context.Context, ref domain.ProductRef) (*domain.Listing, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *mockListingRepo) List(ctx context.Context, kind domain.ProductKind, page, perPage int) ([]domain.Listing, int, error) {
	args := m.Called(ctx, kind, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Listing), args.Int(1), args.Error(2)
}

func (m *mockListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockListingRepo) Exists(ctx context.Context, ref domain.ProductRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) SetSeller(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

type mockSavedRepo struct {
	mock.Mock
}

func (m *mockSavedRepo) Add(ctx context.Context, userID string, ref domain.ProductRef) error {
	args := m.Called(ctx, userID, ref)
	return args.Error(0)
}

func (m *mockSavedRepo) Remove(ctx context.Context, userID string, ref domain.ProductRef) error {
	args := m.Called(ctx, userID, ref)
	return args.Error(0)
}

func (m *mockSavedRepo) List(ctx context.Context, userID string) ([]domain.SavedListing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavedListing), args.Error(1)
}

type mockResetTokens struct {
	mock.Mock
}

func (m *mockResetTokens) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *mockResetTokens) Consume(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// nopEvents accepts every event.
type nopEvents struct{}

func (nopEvents) PublishReviewCreated(context.Context, domain.ReviewCreated) error { return nil }
func (nopEvents) PublishUserRegistered(context.Context, *domain.User) error        { return nil }
func (nopEvents) PublishPasswordReset(context.Context, domain.PasswordResetRequested) error {
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

const (
	testUserID    = "0b5f8c1e-3a4d-4e6f-9a7b-1c2d3e4f5a6b"
	testListingID = "6d3c1f0e-0a52-4d9c-8a55-7b1f2c3d4e5f"
)

type testEnv struct {
	router   http.Handler
	jwt      *auth.JWTManager
	reviews  *mockReviewRepo
	listings *mockListingRepo
	users    *mockUserRepo
	saved    *mockSavedRepo
	tokens   *mockResetTokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		jwt:      auth.NewJWTManager("test-secret", time.Hour),
		reviews:  new(mockReviewRepo),
		listings: new(mockListingRepo),
		users:    new(mockUserRepo),
		saved:    new(mockSavedRepo),
		tokens:   new(mockResetTokens),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env.router = NewRouter(ctx, RouterDeps{
		Reviews:        service.NewReviewService(env.reviews, nopEvents{}, prometheus.NewRegistry(), logger),
		Listings:       service.NewListingService(env.listings, env.users, logger),
		Users:          service.NewUserService(env.users, env.tokens, env.jwt, auth.NewPasswordHasher(bcrypt.MinCost), nopEvents{}, logger),
		Saved:          service.NewSavedService(env.saved, env.listings, env.users, logger),
		TokenValidator: env.jwt.Validator(),
		Health:         health.NewHandler(),
		CORS:           middleware.DefaultCORSConfig(),
		AuthRateLimit:  RateLimitConfig{RPS: 100, Burst: 100},
		CacheMaxAge:    60,
		ServiceName:    "rainbow-test",
		Logger:         logger,
	})
	return env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(testUserID, "ploy")
	require.NoError(t, err)
	return tok
}

// do sends a request; a non-empty token is sent as a bearer credential.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env httputil.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	return env.Error
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}
