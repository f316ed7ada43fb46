package service

import (
	"context"
	"testing"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

func testJWTManager() *security.JWTManager {
	return security.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
}

func activeUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestAuthRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active user with a normalized email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		repo.On("EmailExists", mock.Anything, "ada@example.com").Return(false, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		user, err := svc.Register(ctx, domain.UserCreate{
			Email:    "  Ada@Example.COM ",
			Password: "correct horse",
		})

		assert.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.True(t, user.IsActive)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
		repo.AssertExpectations(t)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		repo.On("EmailExists", mock.Anything, "ada@example.com").Return(true, nil)

		_, err := svc.Register(ctx, domain.UserCreate{Email: "ada@example.com", Password: "pw12345678"})

		assertDomainCode(t, err, "EMAIL_ALREADY_EXISTS")
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		_, err := svc.Register(ctx, domain.UserCreate{Email: "not-an-email", Password: "pw12345678"})

		assertDomainCode(t, err, "INVALID_EMAIL")
	})
}

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token pair carrying the user's roles", func(t *testing.T) {
		repo := new(MockUserRepository)
		jwtManager := testJWTManager()
		svc := NewAuthService(repo, jwtManager)

		user := activeUser(t, "ada@example.com", "correct horse")
		repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)
		repo.On("GetUserRoles", mock.Anything, user.ID).Return([]string{domain.RoleReviewer}, nil)

		pair, err := svc.Login(ctx, domain.UserLogin{Email: "ada@example.com", Password: "correct horse"})

		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, int64(900), pair.ExpiresIn)

		claims, err := jwtManager.ValidateAccessToken(pair.AccessToken)
		assert.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, []string{domain.RoleReviewer}, claims.Roles)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		user := activeUser(t, "ada@example.com", "correct horse")
		repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "ada@example.com", Password: "wrong"})

		assertDomainCode(t, err, "INVALID_CREDENTIALS")
		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})

	t.Run("unknown email is unauthorized, not not-found", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "ghost@example.com", Password: "whatever"})

		assertDomainCode(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("deactivated users cannot log in", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		user := activeUser(t, "ada@example.com", "correct horse")
		user.IsActive = false
		repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(user, nil)

		_, err := svc.Login(ctx, domain.UserLogin{Email: "ada@example.com", Password: "correct horse"})

		assertDomainCode(t, err, "INVALID_CREDENTIALS")
	})
}

func TestAuthRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("exchanges a valid refresh token", func(t *testing.T) {
		repo := new(MockUserRepository)
		jwtManager := testJWTManager()
		svc := NewAuthService(repo, jwtManager)

		user := activeUser(t, "ada@example.com", "pw")
		refresh, err := jwtManager.GenerateRefreshToken(user.ID)
		assert.NoError(t, err)

		repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("GetUserRoles", mock.Anything, user.ID).Return([]string{}, nil)

		pair, err := svc.Refresh(ctx, refresh)

		assert.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("garbage tokens are unauthorized", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		_, err := svc.Refresh(ctx, "not.a.token")

		assertDomainCode(t, err, "INVALID_REFRESH_TOKEN")
	})

	t.Run("tokens signed with a different secret are refused", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		other := security.NewJWTManager("other-secret", 15*time.Minute, 24*time.Hour)
		refresh, err := other.GenerateRefreshToken(uuid.New())
		assert.NoError(t, err)

		_, err = svc.Refresh(ctx, refresh)

		assertDomainCode(t, err, "INVALID_REFRESH_TOKEN")
	})
}

func TestAuthRoles(t *testing.T) {
	ctx := context.Background()

	t.Run("admin assigns a role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		user := activeUser(t, "ada@example.com", "pw")
		role := &domain.Role{ID: uuid.New(), Name: domain.RoleReviewer}

		repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("GetRoleByName", mock.Anything, domain.RoleReviewer).Return(role, nil)
		repo.On("AssignRole", mock.Anything, mock.Anything).Return(nil)

		err := svc.AssignRole(ctx, []string{domain.RoleAdmin}, user.ID, domain.RoleReviewer)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("non-admin may not assign roles", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		err := svc.AssignRole(ctx, []string{domain.RoleReviewer}, uuid.New(), domain.RoleReviewer)

		assertDomainCode(t, err, "ADMIN_REQUIRED")
		repo.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything)
	})

	t.Run("unknown role is not found", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		user := activeUser(t, "ada@example.com", "pw")
		repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("GetRoleByName", mock.Anything, "WIZARD").Return(nil, nil)

		err := svc.AssignRole(ctx, []string{domain.RoleAdmin}, user.ID, "WIZARD")

		assertDomainCode(t, err, "ROLE_NOT_FOUND")
	})

	t.Run("admin revokes a role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewAuthService(repo, testJWTManager())

		userID := uuid.New()
		role := &domain.Role{ID: uuid.New(), Name: domain.RoleReviewer}
		repo.On("GetRoleByName", mock.Anything, domain.RoleReviewer).Return(role, nil)
		repo.On("RevokeRole", mock.Anything, userID, role.ID).Return(nil)

		assert.NoError(t, svc.RevokeRole(ctx, []string{domain.RoleAdmin}, userID, domain.RoleReviewer))
	})
}
