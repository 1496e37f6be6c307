package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

func newAccounts(t *testing.T) *services.AccountService {
	e := setup(t)
	return services.NewAccountService(e.store, bcrypt.MinCost)
}

func TestEnsureDefaultAdminSeedsOnce(t *testing.T) {
	accounts := newAccounts(t)
	ctx := context.Background()

	require.NoError(t, accounts.EnsureDefaultAdmin(ctx, "admin", "siparist2025"))
	res, err := accounts.AuthenticateAdmin(ctx, "admin", "siparist2025")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)

	claims, err := utils.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, models.AdminUserID, claims.Subject)

	require.NoError(t, accounts.UpdateAdminCredentials(ctx, "patron", "yeni-sifre"))
	require.NoError(t, accounts.EnsureDefaultAdmin(ctx, "admin", "siparist2025"))

	_, err = accounts.AuthenticateAdmin(ctx, "admin", "siparist2025")
	assert.ErrorIs(t, err, services.ErrAuth)
	_, err = accounts.AuthenticateAdmin(ctx, "patron", "yeni-sifre")
	assert.NoError(t, err)
}

func TestAuthenticateAdminWithoutSeed(t *testing.T) {
	accounts := newAccounts(t)
	_, err := accounts.AuthenticateAdmin(context.Background(), "admin", "siparist2025")
	assert.ErrorIs(t, err, services.ErrAuth)
}

func TestCashierLifecycle(t *testing.T) {
	accounts := newAccounts(t)
	ctx := context.Background()

	user, err := accounts.CreateCashier(ctx, "kasa1", "gizli")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "gizli", user.PasswordHash)

	_, err = accounts.CreateCashier(ctx, "kasa1", "baska")
	assert.ErrorIs(t, err, services.ErrConflict)
	_, err = accounts.CreateCashier(ctx, "kasa2", "")
	assert.ErrorIs(t, err, services.ErrValidation)

	res, err := accounts.AuthenticateCashier(ctx, "kasa1", "gizli")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCashier, res.Role)
	_, err = accounts.AuthenticateCashier(ctx, "kasa1", "yanlis")
	assert.ErrorIs(t, err, services.ErrAuth)
	_, err = accounts.AuthenticateCashier(ctx, "nobody", "gizli")
	assert.ErrorIs(t, err, services.ErrAuth)

	updated, err := accounts.UpdateCashier(ctx, user.ID, "kasa-on", "yeni")
	require.NoError(t, err)
	assert.Equal(t, "kasa-on", updated.Username)
	_, err = accounts.AuthenticateCashier(ctx, "kasa-on", "yeni")
	require.NoError(t, err)

	other, err := accounts.CreateCashier(ctx, "kasa2", "x")
	require.NoError(t, err)
	_, err = accounts.UpdateCashier(ctx, other.ID, "kasa-on", "")
	assert.ErrorIs(t, err, services.ErrConflict)

	list, err := accounts.ListCashiers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, accounts.DeleteCashier(ctx, user.ID))
	assert.ErrorIs(t, accounts.DeleteCashier(ctx, user.ID), services.ErrNotFound)
	_, err = accounts.UpdateCashier(ctx, user.ID, "x", "")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
