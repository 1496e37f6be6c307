package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

// LoginResult is returned to staff after a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// AccountService manages cashier accounts and the admin singleton.
type AccountService struct {
	store *store.Store
	cost  int

	// dummyHash is compared against when a username does not exist so a
	// miss costs as much as a wrong password.
	dummyHash []byte

	Now func() time.Time
}

func NewAccountService(s *store.Store, bcryptCost int) *AccountService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("siparist-dummy"), bcryptCost)
	return &AccountService{store: s, cost: bcryptCost, dummyHash: dummy, Now: time.Now}
}

func (a *AccountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func credentialsInput(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", validationError("username and password are required")
	}
	return username, nil
}

// EnsureDefaultAdmin seeds the admin singleton when it does not exist yet.
func (a *AccountService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	var admin models.AdminUser
	err := a.store.Get(ctx, models.CollectionAdminUser, models.AdminUserID, &admin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return storeError("load admin", err)
	}
	return a.UpdateAdminCredentials(ctx, username, password)
}

// UpdateAdminCredentials replaces the admin username and password.
func (a *AccountService) UpdateAdminCredentials(ctx context.Context, username, password string) error {
	username, err := credentialsInput(username, password)
	if err != nil {
		return err
	}
	hashed, err := a.hash(password)
	if err != nil {
		return err
	}
	admin := &models.AdminUser{
		ID:           models.AdminUserID,
		Username:     username,
		PasswordHash: hashed,
		UpdatedAt:    a.Now(),
	}
	if err := a.store.Put(ctx, models.CollectionAdminUser, admin); err != nil {
		return storeError("save admin", err)
	}
	utils.InfoLogger.WithField("username", username).Info("admin credentials updated")
	return nil
}

func (a *AccountService) AuthenticateAdmin(ctx context.Context, username, password string) (*LoginResult, error) {
	if _, err := credentialsInput(username, password); err != nil {
		return nil, err
	}
	var admin models.AdminUser
	if err := a.store.Get(ctx, models.CollectionAdminUser, models.AdminUserID, &admin); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeError("load admin", err)
		}
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	if admin.Username != strings.TrimSpace(username) {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	return a.issue(admin.ID, admin.Username, models.RoleAdmin)
}

func (a *AccountService) AuthenticateCashier(ctx context.Context, username, password string) (*LoginResult, error) {
	username, err := credentialsInput(username, password)
	if err != nil {
		return nil, err
	}
	users := make([]models.CashierUser, 0, 1)
	if err := a.store.Query(ctx, models.CollectionCashierUsers, store.Filter{"username": username}, &users); err != nil {
		return nil, storeError("load cashier", err)
	}
	if len(users) == 0 {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	return a.issue(user.ID, user.Username, models.RoleCashier)
}

func (a *AccountService) issue(subject, username, role string) (*LoginResult, error) {
	token, err := utils.GenerateToken(subject, username, role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	utils.InfoLogger.WithFields(logrus.Fields{"username": username, "role": role}).Info("staff login")
	return &LoginResult{Token: token, Role: role, Username: username}, nil
}

func (a *AccountService) ListCashiers(ctx context.Context) ([]models.CashierUser, error) {
	users := make([]models.CashierUser, 0)
	if err := a.store.QueryOrdered(ctx, models.CollectionCashierUsers, nil, "username asc", &users); err != nil {
		return nil, storeError("list cashiers", err)
	}
	return users, nil
}

func (a *AccountService) usernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	users := make([]models.CashierUser, 0, 1)
	if err := a.store.Query(ctx, models.CollectionCashierUsers, store.Filter{"username": username}, &users); err != nil {
		return false, storeError("check username", err)
	}
	for _, u := range users {
		if u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (a *AccountService) CreateCashier(ctx context.Context, username, password string) (*models.CashierUser, error) {
	username, err := credentialsInput(username, password)
	if err != nil {
		return nil, err
	}
	taken, err := a.usernameTaken(ctx, username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, username)
	}
	hashed, err := a.hash(password)
	if err != nil {
		return nil, err
	}
	now := a.Now()
	user := &models.CashierUser{Username: username, PasswordHash: hashed, CreatedAt: now, UpdatedAt: now}
	if _, err := a.store.Add(ctx, models.CollectionCashierUsers, user); err != nil {
		return nil, storeError("create cashier", err)
	}
	utils.InfoLogger.WithField("username", username).Info("cashier created")
	return user, nil
}

// UpdateCashier renames a cashier and, when password is not empty, resets
// their password.
func (a *AccountService) UpdateCashier(ctx context.Context, id, username, password string) (*models.CashierUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}
	var user models.CashierUser
	if err := a.store.Get(ctx, models.CollectionCashierUsers, id, &user); err != nil {
		return nil, notFoundOr("load cashier", err, "cashier "+id)
	}
	taken, err := a.usernameTaken(ctx, username, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q already exists", ErrConflict, username)
	}

	fields := map[string]interface{}{"username": username, "updated_at": a.Now()}
	if password != "" {
		hashed, err := a.hash(password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
	}
	if err := a.store.Update(ctx, models.CollectionCashierUsers, id, fields); err != nil {
		return nil, notFoundOr("update cashier", err, "cashier "+id)
	}
	user.Username = username
	user.UpdatedAt = fields["updated_at"].(time.Time)
	return &user, nil
}

func (a *AccountService) DeleteCashier(ctx context.Context, id string) error {
	var user models.CashierUser
	if err := a.store.Get(ctx, models.CollectionCashierUsers, id, &user); err != nil {
		return notFoundOr("load cashier", err, "cashier "+id)
	}
	if err := a.store.Delete(ctx, models.CollectionCashierUsers, id); err != nil {
		return storeError("delete cashier", err)
	}
	utils.InfoLogger.WithField("username", user.Username).Info("cashier deleted")
	return nil
}
