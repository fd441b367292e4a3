package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/avosseberg/gatehouse-be/internal/models"
	"github.com/google/uuid"
)

// SessionServiceProvider defines the interface for session services.
type SessionServiceProvider interface {
	IssueSession(account models.Account) (models.Session, error)
	ResolveSession(token string) (models.Account, error)
	ReapExpired() (int64, error)
}

// SessionService provides business logic for session management.
type SessionService struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionService creates a new SessionService issuing sessions
// valid for ttl.
func NewSessionService(db *sql.DB, ttl time.Duration) *SessionService {
	return &SessionService{db: db, ttl: ttl, now: time.Now}
}

// IssueSession mints a fresh session for the account. The bearer token
// is generated independently of the session id.
func (s *SessionService) IssueSession(account models.Account) (models.Session, error) {
	now := s.now()
	session := models.Session{
		ID:        uuid.New().String(),
		Token:     uuid.New().String(),
		AccountID: account.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, token, account_id, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		session.ID, session.Token, session.AccountID, session.ExpiresAt.Unix(), session.CreatedAt.Unix(),
	)
	if err != nil {
		return models.Session{}, apperr.QueryError(err)
	}
	return session, nil
}

// ResolveSession returns the account owning the session with the given
// token. The session must not yet be expired; expiry is checked
// against the current time on every call, never cached.
func (s *SessionService) ResolveSession(token string) (models.Account, error) {
	row := s.db.QueryRow(`
		SELECT a.id, a.username, a.email, a.password_hash, a.active, a.created_at, se.expires_at
		FROM sessions se
		JOIN accounts a ON a.id = se.account_id
		WHERE se.token = ?`, token)

	var account models.Account
	var createdAt, expiresAt int64
	err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash, &account.Active, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, apperr.NotFound("session not found")
		}
		return models.Account{}, apperr.QueryError(err)
	}
	account.CreatedAt = time.Unix(createdAt, 0)

	session := models.Session{Token: token, AccountID: account.ID, ExpiresAt: time.Unix(expiresAt, 0)}
	if session.Expired(s.now()) {
		return models.Account{}, apperr.SessionExpired()
	}
	return account, nil
}

// ReapExpired deletes every session past its expiry and returns the
// number removed.
func (s *SessionService) ReapExpired() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", s.now().Unix())
	if err != nil {
		return 0, apperr.QueryError(err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.QueryError(err)
	}
	return removed, nil
}
