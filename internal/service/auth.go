package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the persistence contract for users and role assignments
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (*domain.Role, error)
	AssignRole(ctx context.Context, ur *domain.UserRole) error
	RevokeRole(ctx context.Context, userID, roleID uuid.UUID) error
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

// AuthService handles registration, authentication and role management
type AuthService struct {
	userRepo   UserRepository
	jwtManager *security.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, jwtManager *security.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.User, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.ConflictError("EMAIL_ALREADY_EXISTS", "email %s is already registered", email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().Str("user_id", user.ID.String()).Msg("user registered")

	return user, nil
}

// Login authenticates a user and returns a token pair carrying the user's
// role names
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, domain.UnauthorizedError("INVALID_CREDENTIALS", "invalid email or password")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, domain.UnauthorizedError("INVALID_CREDENTIALS", "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.UnauthorizedError("INVALID_CREDENTIALS", "invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domain.UnauthorizedError("INVALID_REFRESH_TOKEN", "refresh token is invalid or expired")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, domain.UnauthorizedError("INVALID_REFRESH_TOKEN", "user is no longer active")
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	roles, err := s.userRepo.GetUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}

	accessToken, refreshToken, expiresIn, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// GetUser returns a user by id
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFoundError("USER_NOT_FOUND", "user %s not found", id)
	}
	return user, nil
}

// ListRoles returns all defined roles
func (s *AuthService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.userRepo.ListRoles(ctx)
}

// AssignRole grants a role to a user. Caller must be an admin.
func (s *AuthService) AssignRole(ctx context.Context, callerRoles []string, userID uuid.UUID, roleName string) error {
	if !domain.HasRole(callerRoles, domain.RoleAdmin) {
		return domain.ForbiddenError("ADMIN_REQUIRED", "only admins may assign roles")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return domain.NotFoundError("USER_NOT_FOUND", "user %s not found", userID)
	}

	role, err := s.userRepo.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return domain.NotFoundError("ROLE_NOT_FOUND", "role %s not found", roleName)
	}

	ur := &domain.UserRole{
		UserID:     userID,
		RoleID:     role.ID,
		AssignedAt: time.Now().UTC(),
	}
	if err := s.userRepo.AssignRole(ctx, ur); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("role", roleName).
		Msg("role assigned")

	return nil
}

// RevokeRole removes a role from a user. Caller must be an admin.
func (s *AuthService) RevokeRole(ctx context.Context, callerRoles []string, userID uuid.UUID, roleName string) error {
	if !domain.HasRole(callerRoles, domain.RoleAdmin) {
		return domain.ForbiddenError("ADMIN_REQUIRED", "only admins may revoke roles")
	}

	role, err := s.userRepo.GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return domain.NotFoundError("ROLE_NOT_FOUND", "role %s not found", roleName)
	}

	if err := s.userRepo.RevokeRole(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}

	return nil
}
