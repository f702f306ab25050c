package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jubmeng/rainbow/internal/auth"
	"github.com/jubmeng/rainbow/internal/domain"
	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

const testPassword = "Passw0rd!"

type userMocks struct {
	users  *mockUserRepository
	tokens *mockResetTokenStore
	events *mockUserEvents
	jwt    *auth.JWTManager
	hasher *auth.PasswordHasher
}

func newTestUserService() (*UserService, userMocks) {
	m := userMocks{
		users:  new(mockUserRepository),
		tokens: new(mockResetTokenStore),
		events: new(mockUserEvents),
		jwt:    auth.NewJWTManager("test-secret", time.Hour),
		hasher: auth.NewPasswordHasher(bcrypt.MinCost),
	}
	return NewUserService(m.users, m.tokens, m.jwt, m.hasher, m.events, newTestLogger()), m
}

func storedUser(t *testing.T, hasher *auth.PasswordHasher) *domain.User {
	t.Helper()
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	return &domain.User{ID: "user-1", Username: "ploy", Email: "ploy@example.com", PasswordHash: hash}
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
	m.events.On("PublishUserRegistered", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	res, err := svc.Register(ctx, RegisterInput{
		Username: " ploy ",
		Email:    "Ploy@Example.com",
		Password: testPassword,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "ploy", res.User.Username)
	assert.Equal(t, "ploy@example.com", res.User.Email)
	assert.NotEqual(t, testPassword, res.User.PasswordHash)
	assert.NoError(t, m.hasher.Compare(res.User.PasswordHash, testPassword))

	claims, err := m.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	m.events.AssertExpectations(t)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("Create", ctx, mock.Anything).Return(apperrors.Duplicate("username or email already exists"))

	_, err := svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: testPassword})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	m.events.AssertNotCalled(t, "PublishUserRegistered", mock.Anything, mock.Anything)
}

func TestRegister_PublishFailureIsNotReturned(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("Create", ctx, mock.Anything).Return(nil)
	m.events.On("PublishUserRegistered", ctx, mock.Anything).Return(errors.New("broker down"))

	res, err := svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: testPassword})

	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing username", RegisterInput{Email: "a@b.co", Password: testPassword}},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: testPassword}},
		{"short password", RegisterInput{Username: "a", Email: "a@b.co", Password: "ab1"}},
		{"no digit", RegisterInput{Username: "a", Email: "a@b.co", Password: "password"}},
		{"no letter", RegisterInput{Username: "a", Email: "a@b.co", Password: "12345678"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestUserService()
			_, err := svc.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()
	user := storedUser(t, m.hasher)

	m.users.On("GetByEmail", ctx, user.Email).Return(user, nil)

	res, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: testPassword})

	require.NoError(t, err)
	assert.Equal(t, user, res.User)
	claims, err := m.jwt.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ploy", claims.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()
	user := storedUser(t, m.hasher)

	m.users.On("GetByEmail", ctx, user.Email).Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "Wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: testPassword})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_StoreFailure(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByEmail", ctx, "a@b.co").Return(nil, errors.New("timeout"))

	_, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: testPassword})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

// --- ForgotPassword / ResetPassword ---

func TestForgotPassword_Success(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()
	user := storedUser(t, m.hasher)

	var saved string
	m.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	m.tokens.On("Save", ctx, mock.AnythingOfType("string"), user.ID, ResetTokenTTL).
		Run(func(args mock.Arguments) { saved = args.String(1) }).
		Return(nil)
	m.events.On("PublishPasswordReset", ctx, mock.MatchedBy(func(d domain.PasswordResetRequested) bool {
		return d.UserID == user.ID && d.Email == user.Email && d.Token != "" && d.Token == saved
	})).Return(nil)

	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	assert.Len(t, saved, resetTokenBytes*2)
	m.events.AssertExpectations(t)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	err := svc.ForgotPassword(ctx, "ghost@example.com")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.tokens.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPassword_PublishFailure(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()
	user := storedUser(t, m.hasher)

	m.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	m.tokens.On("Save", ctx, mock.Anything, user.ID, ResetTokenTTL).Return(nil)
	m.events.On("PublishPasswordReset", ctx, mock.Anything).Return(errors.New("circuit breaker is open"))

	assert.Error(t, svc.ForgotPassword(ctx, user.Email))
}

func TestResetPassword_Success(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.tokens.On("Consume", ctx, "tok").Return("user-1", nil)
	m.users.On("UpdatePassword", ctx, "user-1", mock.MatchedBy(func(hash string) bool {
		return m.hasher.Compare(hash, "NewPassw0rd") == nil
	})).Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, "tok", "NewPassw0rd"))
	m.users.AssertExpectations(t)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.tokens.On("Consume", ctx, "stale").Return("", apperrors.Unauthorized("reset token is invalid or has expired"))

	err := svc.ResetPassword(ctx, "stale", "NewPassw0rd")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	m.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_StoreFailureRestoresToken(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.tokens.On("Consume", ctx, "tok").Return("user-1", nil)
	m.users.On("UpdatePassword", ctx, "user-1", mock.Anything).Return(errors.New("connection reset"))
	m.tokens.On("Save", ctx, "tok", "user-1", ResetTokenTTL).Return(nil)

	err := svc.ResetPassword(ctx, "tok", "NewPassw0rd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "update user password")
	m.tokens.AssertExpectations(t)
}

func TestResetPassword_WeakPasswordKeepsToken(t *testing.T) {
	svc, m := newTestUserService()

	err := svc.ResetPassword(context.Background(), "tok", "short")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	m.tokens.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything)
}

// --- Profile ---

func TestUpdateProfile(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Username: "ploy", FirstName: "Ploy"}, nil)
	m.users.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "ploy2" && u.FirstName == "Ploy" && u.PhoneNumber == "0812345678"
	})).Return(nil)

	u, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{
		Username:    strPtr("ploy2"),
		PhoneNumber: strPtr("0812345678"),
	})

	require.NoError(t, err)
	assert.Equal(t, "ploy2", u.Username)
	m.users.AssertExpectations(t)
}

func TestUpdateProfile_EmptyUsername(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Username: "ploy"}, nil)

	_, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileInput{Username: strPtr("")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSetSeller(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("SetSeller", ctx, "user-1").Return(nil)

	require.NoError(t, svc.SetSeller(ctx, "user-1", "user-1"))
	assert.ErrorIs(t, svc.SetSeller(ctx, "user-1", "user-2"), apperrors.ErrForbidden)
	m.users.AssertNumberOfCalls(t, "SetSeller", 1)
}

func TestNavbar(t *testing.T) {
	svc, m := newTestUserService()
	ctx := context.Background()

	m.users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Username: "ploy", ImageURL: "https://img/p.png", IsSeller: true}, nil)

	info, err := svc.Navbar(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, domain.NavbarInfo{Username: "ploy", Image: "https://img/p.png", IsSeller: true}, info)
}
