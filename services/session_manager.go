package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/store"
	"github.com/yeremiapane/siparist/utils"
)

// SessionManager issues and checks table passwords. One document per table
// in the passwords collection; issuing a password overwrites it.
type SessionManager struct {
	store     *store.Store
	passwords PasswordSource

	resetHour   int
	resetMinute int

	Now func() time.Time
}

func NewSessionManager(s *store.Store, passwords PasswordSource, resetHour, resetMinute int) *SessionManager {
	if passwords == nil {
		passwords = NewWordPasswords(time.Now().UnixNano())
	}
	return &SessionManager{
		store:       s,
		passwords:   passwords,
		resetHour:   resetHour,
		resetMinute: resetMinute,
		Now:         time.Now,
	}
}

// IssuePassword starts a new occupancy of tableID. Whatever session the table
// had before is superseded; last writer wins.
func (m *SessionManager) IssuePassword(ctx context.Context, tableID string) (*models.TableSession, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return nil, validationError("table id is required")
	}

	now := m.Now()
	session := &models.TableSession{
		ID:        tableID,
		Password:  m.passwords.Next(now),
		SessionID: uuid.NewString(),
		IsActive:  true,
		CreatedAt: now,
		ExpiresAt: sessionExpiry(now, m.resetHour, m.resetMinute),
	}
	if err := m.store.Put(ctx, models.CollectionPasswords, session); err != nil {
		return nil, storeError("issue password", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   tableID,
		"session_id": session.SessionID,
	}).Info("table password issued")
	return session, nil
}

// sessionExpiry is the reset instant of the day after now.
func sessionExpiry(now time.Time, hour, minute int) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hour, minute, 0, 0, now.Location())
}

// Validate returns the session id of tableID when password is its current,
// active and unexpired password.
func (m *SessionManager) Validate(ctx context.Context, tableID, password string) (string, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" || password == "" {
		return "", validationError("table id and password are required")
	}

	var session models.TableSession
	if err := m.store.Get(ctx, models.CollectionPasswords, tableID, &session); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: no password issued for table %s", ErrAuth, tableID)
		}
		return "", storeError("validate password", err)
	}

	if subtle.ConstantTimeCompare([]byte(session.Password), []byte(password)) != 1 {
		return "", fmt.Errorf("%w: wrong password for table %s", ErrAuth, tableID)
	}
	if !session.IsActive {
		return "", fmt.Errorf("%w: table %s has no active session", ErrAuth, tableID)
	}
	if !session.ExpiresAt.IsZero() && !m.Now().Before(session.ExpiresAt) {
		return "", fmt.Errorf("%w: session for table %s has expired", ErrAuth, tableID)
	}
	return session.SessionID, nil
}

// Check confirms sessionID is still the live session of tableID. Anything
// else (missing, inactive, superseded, expired) is ErrStaleSession.
func (m *SessionManager) Check(ctx context.Context, tableID, sessionID string) (*models.TableSession, error) {
	var session models.TableSession
	if err := m.store.Get(ctx, models.CollectionPasswords, tableID, &session); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: table %s", ErrStaleSession, tableID)
		}
		return nil, storeError("check session", err)
	}
	if !session.Matches(sessionID) {
		return nil, fmt.Errorf("%w: table %s", ErrStaleSession, tableID)
	}
	if !session.ExpiresAt.IsZero() && !m.Now().Before(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: table %s expired", ErrStaleSession, tableID)
	}
	return &session, nil
}

// Deactivate closes the session of tableID only while sessionID is still the
// one stored there. Reports whether anything was deactivated.
func (m *SessionManager) Deactivate(ctx context.Context, tableID, sessionID string) (bool, error) {
	if tableID == "" || sessionID == "" {
		return false, validationError("table id and session id are required")
	}

	err := m.store.Batch().
		Require(models.CollectionPasswords, tableID, store.Filter{"session_id": sessionID, "is_active": true}).
		Update(models.CollectionPasswords, tableID, map[string]interface{}{"is_active": false}).
		Commit(ctx)
	if errors.Is(err, store.ErrPreconditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, storeError("deactivate session", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   tableID,
		"session_id": sessionID,
	}).Info("table session deactivated")
	return true, nil
}

// ListActive returns every active table session ordered by table id.
func (m *SessionManager) ListActive(ctx context.Context) ([]models.TableSession, error) {
	sessions := make([]models.TableSession, 0)
	err := m.store.QueryOrdered(ctx, models.CollectionPasswords, store.Filter{"is_active": true}, "id asc", &sessions)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	return sessions, nil
}
