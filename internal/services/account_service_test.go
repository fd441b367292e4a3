package services

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/avosseberg/gatehouse-be/internal/database"
	"github.com/avosseberg/gatehouse-be/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	// database.New caps the pool at one connection, so the in-memory
	// database survives for the whole test.
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestAccountService(t *testing.T, db *sql.DB) *AccountService {
	t.Helper()
	return NewAccountService(db, validate.New(), bcrypt.MinCost)
}

func TestCreateAccountAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	created, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.False(t, created.Active)
	assert.NotEqual(t, "password1", created.PasswordHash)

	byUsername, err := svc.Authenticate("alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byUsername.ID)
	assert.False(t, byUsername.Active)

	byEmail, err := svc.Authenticate("alice@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestCreateAccountValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	_, err := svc.CreateAccount("a", "a@example.com", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = svc.CreateAccount("alice", "not-an-email", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = svc.CreateAccount("alice", "alice@example.com", "1234567")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	// Validation failures never touch the store.
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 0, count)

	_, err = svc.CreateAccount("ab", "ab@example.com", "12345678")
	assert.NoError(t, err)
}

func TestCreateAccountConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	_, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.CreateAccount("alice", "other@example.com", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.CreateAccount("other", "alice@example.com", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCreateAccountConcurrentRace(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateAccount("alice", "alice@example.com", "password1")
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case apperr.IsKind(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUniqueViolationMapsToConflict(t *testing.T) {
	db := newTestDB(t)

	const insert = "INSERT INTO accounts (id, username, email, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	_, err := db.Exec(insert, "id-1", "alice", "alice@example.com", "hash", false, 0)
	require.NoError(t, err)

	// Duplicate username and duplicate email both trip the schema
	// constraint, the authoritative uniqueness mechanism.
	_, err = db.Exec(insert, "id-2", "alice", "other@example.com", "hash", false, 0)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	_, err = db.Exec(insert, "id-3", "other", "alice@example.com", "hash", false, 0)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))

	// Other store failures are not conflicts.
	_, err = db.Exec("INSERT INTO no_such_table (id) VALUES (?)", "id-4")
	require.Error(t, err)
	assert.False(t, isUniqueViolation(err))
}

func TestAuthenticateUnauthorized(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	_, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Authenticate("alice", "wrongpassword")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	// Unknown identifiers report Unauthorized, not NotFound.
	_, err = svc.Authenticate("nobody", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestUpdateAccountPartial(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	account, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)

	// Email-only update keeps the password working.
	newEmail := "alice@new.example.com"
	updated, err := svc.UpdateAccount(account, &newEmail, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	account, err = svc.Authenticate("alice@new.example.com", "password1")
	require.NoError(t, err)

	// Password-only update keeps the email and rotates the hash.
	newPassword := "password2"
	updated, err = svc.UpdateAccount(account, nil, &newPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	_, err = svc.Authenticate("alice", "password1")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	_, err = svc.Authenticate("alice", "password2")
	require.NoError(t, err)
}

func TestUpdateAccountValidatesInput(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)

	account, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)

	badEmail := "nope"
	_, err = svc.UpdateAccount(account, &badEmail, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	shortPassword := "1234567"
	_, err = svc.UpdateAccount(account, nil, &shortPassword)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}

func TestDeleteAccountCascadesSessions(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAccountService(t, db)
	sessions := NewSessionService(db, 30*24*time.Hour)

	account, err := svc.CreateAccount("alice", "alice@example.com", "password1")
	require.NoError(t, err)
	_, err = sessions.IssueSession(account)
	require.NoError(t, err)

	deleted, err := svc.DeleteAccount(account)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count))
	assert.Equal(t, 0, count, "sessions must cascade with their account")

	// Deleting again affects nothing.
	deleted, err = svc.DeleteAccount(account)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
