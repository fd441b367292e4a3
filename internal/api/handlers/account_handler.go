package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/avosseberg/gatehouse-be/internal/auth"
	"github.com/avosseberg/gatehouse-be/internal/models"
	"github.com/avosseberg/gatehouse-be/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles HTTP requests for account and session
// management.
type AccountHandler struct {
	accounts services.AccountServiceProvider
	sessions services.SessionServiceProvider
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts services.AccountServiceProvider, sessions services.SessionServiceProvider) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests. Identifier
// is a username or an email.
type LoginPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// accountPayload is the client-facing account shape.
type accountPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

// sessionPayload is the success response for registration and login.
type sessionPayload struct {
	Token     string         `json:"token"`
	ExpiresAt int64          `json:"expires_at"`
	Account   accountPayload `json:"account"`
}

func toAccountPayload(account models.Account) accountPayload {
	return accountPayload{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Active:   account.Active,
	}
}

func toSessionPayload(account models.Account, session models.Session) sessionPayload {
	return sessionPayload{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
		Account:   toAccountPayload(account),
	}
}

// Register handles new account registration and issues the first
// session for the created account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperr.InvalidInput("invalid request body"))
		return
	}

	account, err := h.accounts.CreateAccount(payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register account")
		writeError(w, err)
		return
	}

	session, err := h.sessions.IssueSession(account)
	if err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to issue session after registration")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionPayload(account, session))
}

// Login handles authentication and issues a new session.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperr.InvalidInput("invalid request body"))
		return
	}

	account, err := h.accounts.Authenticate(payload.Identifier, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("identifier", payload.Identifier).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	session, err := h.sessions.IssueSession(account)
	if err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to issue session")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionPayload(account, session))
}

// GetMe returns the account resolved from the bearer token.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve account from context")
		writeError(w, apperr.QueryError(nil))
		return
	}

	writeJSON(w, http.StatusOK, toAccountPayload(account))
}

// Get handles retrieving an account by its ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.accounts.GetAccountByID(id)
	if err != nil {
		log.Warn().Err(err).Str("account_id", id).Msg("Failed to get account by ID")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountPayload(account))
}

// Update applies a partial update to the authenticated account.
// Absent fields keep their current values.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve account from context")
		writeError(w, apperr.QueryError(nil))
		return
	}

	var payload struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperr.InvalidInput("invalid request body"))
		return
	}

	updated, err := h.accounts.UpdateAccount(account, payload.Email, payload.Password)
	if err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to update account")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// Delete removes the authenticated account. Its sessions are removed
// by the store's cascade rule.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve account from context")
		writeError(w, apperr.QueryError(nil))
		return
	}

	if _, err := h.accounts.DeleteAccount(account); err != nil {
		log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to delete account")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
