package service

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/internal/infrastructure/repository"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (*AuthService, *utils.JWTManager) {
	f := newFixture(t)
	jwt := utils.NewJWTManager("test-secret", time.Hour)
	return NewAuthService(repository.NewUserRepository(f.db), jwt, zap.NewNop()), jwt
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, jwt := newAuthService(t)

	user, err := auth.Register(ctx, &RegisterInput{Name: " Sari ", Email: " Sari@Mail.TEST", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "Sari", user.Name)
	assert.Equal(t, "sari@mail.test", user.Email)
	assert.Equal(t, enum.RoleCustomer, user.Role)
	assert.NotEqual(t, "hunter22", user.Password)

	out, err := auth.Login(ctx, &LoginInput{Email: "SARI@mail.test", Password: "hunter22"})
	require.NoError(t, err)
	sub, err := jwt.ValidateAccessToken(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub.ID)
	assert.Equal(t, string(enum.RoleCustomer), sub.Role)

	me, err := auth.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, me.Email)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuthService(t)
	_, err := auth.Register(ctx, &RegisterInput{Name: "Sari", Email: "sari@mail.test", Password: "hunter22"})
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, &LoginInput{Email: "sari@mail.test", Password: "nope-nope"})
	_, unknown := auth.Login(ctx, &LoginInput{Email: "ghost@mail.test", Password: "hunter22"})
	assert.ErrorIs(t, wrongPassword, apperror.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, apperror.ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuthService(t)
	_, err := auth.Register(ctx, &RegisterInput{Name: "Sari", Email: "sari@mail.test", Password: "hunter22"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, &RegisterInput{Name: "Other", Email: "SARI@mail.test", Password: "hunter22"})
	assertKind(t, err, apperror.KindConflict)

	_, err = auth.Register(ctx, &RegisterInput{Name: " ", Email: "no-at-sign", Password: "short"})
	appErr := assertKind(t, err, apperror.KindValidation)
	assert.Len(t, appErr.Errors, 3)
}

func TestCreateStaffRoles(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuthService(t)

	tech, err := auth.CreateStaff(ctx, &RegisterInput{Name: "Budi", Email: "budi@shop.test", Password: "wrench123"}, enum.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, enum.RoleTechnician, tech.Role)

	_, err = auth.CreateStaff(ctx, &RegisterInput{Name: "Cust", Email: "c@shop.test", Password: "wrench123"}, enum.RoleCustomer)
	assertKind(t, err, apperror.KindValidation)
}
