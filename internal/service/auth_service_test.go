package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newAuthService(store *memory.Store) (*AuthService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("secret", "helpdesk", time.Hour)
	return NewAuthService(AuthDependencies{
		UserRepo:   store.Users(),
		Tokens:     tokens,
		BcryptCost: bcrypt.MinCost,
	}), tokens
}

func TestRegisterClientAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, tokens := newAuthService(store)

	session, err := svc.RegisterClient(ctx, RegisterInput{FullName: "Carla", Email: "Carla@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, session.User.Role)
	assert.Equal(t, "carla@example.com", session.User.Email)

	claims, err := tokens.ParseToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	_, err = svc.RegisterClient(ctx, RegisterInput{FullName: "Carla", Email: "carla@example.com", Password: "another-pass"})
	assert.True(t, apperrors.IsConflict(err))

	login, err := svc.Login(ctx, "carla@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "carla@example.com", "wrong")
	assert.True(t, apperrors.IsUnauthorized(err))
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(memory.NewStore())
	_, err := svc.RegisterClient(context.Background(), RegisterInput{FullName: "", Email: "not-an-email", Password: "short"})
	require.True(t, apperrors.IsValidation(err))

	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
	assert.Contains(t, fields, "full_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestProvisionUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, _ := newAuthService(store)
	admin := seedUser(t, store, "admin-1", "Ada", domain.RoleAdmin, true)
	client := seedUser(t, store, "client-1", "Carla", domain.RoleClient, true)

	input := ProvisionInput{FullName: "Xavier", Email: "x@example.com", Password: "long-enough", Role: "TechSupport"}

	_, err := svc.ProvisionUser(ctx, client, input)
	assert.True(t, apperrors.IsForbidden(err))

	user, err := svc.ProvisionUser(ctx, admin, input)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTechnician, user.Role)
	assert.True(t, user.IsActive)

	input.Email, input.Role = "y@example.com", "root"
	_, err = svc.ProvisionUser(ctx, admin, input)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewUserService(store.Users())
	client := seedUser(t, store, "client-1", "Carla", domain.RoleClient, true)
	other := seedUser(t, store, "client-2", "Oscar", domain.RoleClient, true)
	tech := seedUser(t, store, "tech-1", "Xavier", domain.RoleTechnician, true)
	seedUser(t, store, "tech-2", "Retired", domain.RoleTechnician, false)
	seedUser(t, store, "admin-1", "Ada", domain.RoleAdmin, true)

	self, err := svc.GetUser(ctx, client, client.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Carla", self.FullName)

	_, err = svc.GetUser(ctx, other, client.UserID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.GetUser(ctx, tech, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	assignees, err := svc.ListAssignees(ctx, tech)
	require.NoError(t, err)
	names := []string{}
	for _, u := range assignees {
		names = append(names, u.FullName)
	}
	assert.Equal(t, []string{"Ada", "Xavier"}, names)

	_, err = svc.ListAssignees(ctx, client)
	assert.True(t, apperrors.IsForbidden(err))
}
