package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/avosseberg/gatehouse-be/internal/models"
	"github.com/avosseberg/gatehouse-be/internal/validate"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	CreateAccount(username, email, password string) (models.Account, error)
	Authenticate(identifier, password string) (models.Account, error)
	UpdateAccount(account models.Account, newEmail, newPassword *string) (int64, error)
	DeleteAccount(account models.Account) (int64, error)
	GetAccountByID(id string) (models.Account, error)
}

// AccountService provides business logic for account management.
type AccountService struct {
	db    *sql.DB
	rules validate.Rules
	cost  int
}

// NewAccountService creates a new AccountService. rules is compiled
// once by the caller; cost is the bcrypt work factor.
func NewAccountService(db *sql.DB, rules validate.Rules, cost int) *AccountService {
	return &AccountService{db: db, rules: rules, cost: cost}
}

// isUniqueViolation reports whether err is a sqlite UNIQUE (or primary
// key) constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
}

// CreateAccount validates input, hashes the password and persists a
// new inactive account. Uniqueness of username and email is enforced
// by the schema; the pre-insert lookup only gives a cleaner error on
// the common case.
func (s *AccountService) CreateAccount(username, email, password string) (models.Account, error) {
	if err := s.rules.Account(username, email, password); err != nil {
		return models.Account{}, err
	}

	var exists int
	row := s.db.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = ? OR email = ?", username, email)
	if err := row.Scan(&exists); err != nil {
		return models.Account{}, apperr.QueryError(err)
	}
	if exists > 0 {
		return models.Account{}, apperr.Conflict("email or username are already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.Account{}, apperr.HashingFailure(err)
	}

	account := models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Active:       false,
		CreatedAt:    time.Now(),
	}

	_, err = s.db.Exec(
		"INSERT INTO accounts (id, username, email, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		account.ID, account.Username, account.Email, account.PasswordHash, account.Active, account.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent creation.
			return models.Account{}, apperr.Conflict("email or username are already taken")
		}
		return models.Account{}, apperr.QueryError(err)
	}

	return account, nil
}

// Authenticate verifies credentials for an account looked up by
// username or email. Unknown identifiers and wrong passwords both
// come back as Unauthorized; only a hash-engine failure is surfaced
// separately.
func (s *AccountService) Authenticate(identifier, password string) (models.Account, error) {
	account, err := s.getByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, apperr.Unauthorized()
		}
		return models.Account{}, apperr.QueryError(err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return models.Account{}, apperr.Unauthorized()
		}
		return models.Account{}, apperr.HashingFailure(err)
	}

	return account, nil
}

// UpdateAccount applies a partial update: nil fields keep their
// current value. A new password is hashed exactly once, here. Returns
// the number of rows affected.
func (s *AccountService) UpdateAccount(account models.Account, newEmail, newPassword *string) (int64, error) {
	email := account.Email
	if newEmail != nil {
		if err := s.rules.Email(*newEmail); err != nil {
			return 0, err
		}
		email = *newEmail
	}

	passwordHash := account.PasswordHash
	if newPassword != nil {
		if err := s.rules.Password(*newPassword); err != nil {
			return 0, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*newPassword), s.cost)
		if err != nil {
			return 0, apperr.HashingFailure(err)
		}
		passwordHash = string(hashed)
	}

	res, err := s.db.Exec("UPDATE accounts SET email = ?, password_hash = ? WHERE id = ?", email, passwordHash, account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflict("email is already taken")
		}
		return 0, apperr.QueryError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.QueryError(err)
	}
	return affected, nil
}

// DeleteAccount removes the account. Dependent sessions are removed by
// the schema's ON DELETE CASCADE. Returns the number of rows affected.
func (s *AccountService) DeleteAccount(account models.Account) (int64, error) {
	res, err := s.db.Exec("DELETE FROM accounts WHERE id = ?", account.ID)
	if err != nil {
		return 0, apperr.QueryError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.QueryError(err)
	}
	return affected, nil
}

// GetAccountByID retrieves a single account by its ID.
func (s *AccountService) GetAccountByID(id string) (models.Account, error) {
	account, err := s.scanAccount(s.db.QueryRow(
		"SELECT id, username, email, password_hash, active, created_at FROM accounts WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, apperr.NotFound("account not found")
		}
		return models.Account{}, apperr.QueryError(err)
	}
	return account, nil
}

func (s *AccountService) getByIdentifier(identifier string) (models.Account, error) {
	return s.scanAccount(s.db.QueryRow(
		"SELECT id, username, email, password_hash, active, created_at FROM accounts WHERE username = ? OR email = ?",
		identifier, identifier))
}

func (s *AccountService) scanAccount(row *sql.Row) (models.Account, error) {
	var account models.Account
	var createdAt int64
	err := row.Scan(&account.ID, &account.Username, &account.Email, &account.PasswordHash, &account.Active, &createdAt)
	if err != nil {
		return models.Account{}, err
	}
	account.CreatedAt = time.Unix(createdAt, 0)
	return account, nil
}
