package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
	"github.com/spec-kit/helpdesk/pkg/util/validate"
)

// AuthService coordinates registration, login and account provisioning.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	hasher     *auth.PasswordHasher
	logger     *zap.Logger
	now        Clock
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	BcryptCost int
	Logger     *zap.Logger
	Clock      Clock
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   deps.Tokens,
		hasher:     auth.NewPasswordHasher(deps.BcryptCost),
		logger:     logger,
		now:        now,
	}
}

// RegisterInput is a self-service client sign-up.
type RegisterInput struct {
	FullName string `validate:"notblank,max=200"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

// ProvisionInput creates an account with an explicit role.
type ProvisionInput struct {
	FullName string `validate:"notblank,max=200"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	Role     string `validate:"required"`
}

// Session is an issued access token.
type Session struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// RegisterClient creates a Client account and signs it in.
func (s *AuthService) RegisterClient(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, input.FullName, input.Email, input.Password, domain.RoleClient)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ProvisionUser lets an admin create an account of any role.
func (s *AuthService) ProvisionUser(ctx context.Context, caller domain.Identity, input ProvisionInput) (*domain.User, error) {
	if err := policy.Authenticated(caller); err != nil {
		return nil, err
	}
	if err := policy.CanProvisionUsers(caller); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	user, err := s.createUser(ctx, input.FullName, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user provisioned",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("actor_id", caller.UserID))
	return user, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, mapRepoError(err, resourceUser, email)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account is deactivated")
	}
	return s.issue(user)
}

func (s *AuthService) createUser(ctx context.Context, fullName, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, mapRepoError(err, resourceUser, user.Email)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, AccessToken: token, ExpiresAt: exp}, nil
}
