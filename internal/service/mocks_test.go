package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jubmeng/rainbow/internal/domain"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) CreateWithAggregate(ctx context.Context, review *domain.Review) (domain.Aggregate, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.Aggregate), args.Error(1)
}

func (m *mockReviewRepository) ListByKind(ctx context.Context, kind domain.ProductKind, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, kind, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

// --- Mock Listing Repository ---

type mockListingRepository struct {
	mock.Mock
}

func (m *mockListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockListingRepository) Get(ctx context.Context, ref domain.ProductRef) (*domain.Listing, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *mockListingRepository) List(ctx context.Context, kind domain.ProductKind, page, perPage int) ([]domain.Listing, int, error) {
	args := m.Called(ctx, kind, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Listing), args.Int(1), args.Error(2)
}

func (m *mockListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *mockListingRepository) Exists(ctx context.Context, ref domain.ProductRef) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) SetSeller(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// --- Mock Saved Repository ---

type mockSavedRepository struct {
	mock.Mock
}

func (m *mockSavedRepository) Add(ctx context.Context, userID string, ref domain.ProductRef) error {
	args := m.Called(ctx, userID, ref)
	return args.Error(0)
}

func (m *mockSavedRepository) Remove(ctx context.Context, userID string, ref domain.ProductRef) error {
	args := m.Called(ctx, userID, ref)
	return args.Error(0)
}

func (m *mockSavedRepository) List(ctx context.Context, userID string) ([]domain.SavedListing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SavedListing), args.Error(1)
}

// --- Mock Reset Token Store ---

type mockResetTokenStore struct {
	mock.Mock
}

func (m *mockResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *mockResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// --- Mock Event Publishers ---

type mockReviewEvents struct {
	mock.Mock
}

func (m *mockReviewEvents) PublishReviewCreated(ctx context.Context, data domain.ReviewCreated) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

type mockUserEvents struct {
	mock.Mock
}

func (m *mockUserEvents) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserEvents) PublishPasswordReset(ctx context.Context, data domain.PasswordResetRequested) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

// --- In-memory Review Repository ---

// memReviewRepository applies domain.Aggregate.Add under a mutex, the same
// fold the postgres repository runs in its UPDATE.
type memReviewRepository struct {
	mu       sync.Mutex
	listings map[domain.ProductRef]domain.Aggregate
	reviews  []domain.Review
}

func newMemReviewRepository(refs ...domain.ProductRef) *memReviewRepository {
	r := &memReviewRepository{listings: make(map[domain.ProductRef]domain.Aggregate)}
	for _, ref := range refs {
		r.listings[ref] = domain.Aggregate{}
	}
	return r
}

func (r *memReviewRepository) CreateWithAggregate(_ context.Context, review *domain.Review) (domain.Aggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agg, ok := r.listings[review.Product]
	if !ok {
		return domain.Aggregate{}, apperrors.NotFound(string(review.Product.Kind), review.Product.ID)
	}
	agg = agg.Add(review.Rating)
	r.listings[review.Product] = agg
	r.reviews = append(r.reviews, *review)
	return agg, nil
}

func (r *memReviewRepository) ListByKind(_ context.Context, kind domain.ProductKind, productID string) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Review
	for _, rv := range r.reviews {
		if rv.Product.Kind == kind && (productID == "" || rv.Product.ID == productID) {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *memReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rv := range r.reviews {
		if rv.ID == id {
			rv := rv
			return &rv, nil
		}
	}
	return nil, apperrors.NotFound("review", id)
}

func (r *memReviewRepository) aggregate(ref domain.ProductRef) domain.Aggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listings[ref]
}
