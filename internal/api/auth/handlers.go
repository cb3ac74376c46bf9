package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/api/htmx"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/ratelimit"
)

const (
	msgInvalidLogin  = "Invalid email or password"
	msgLoginFailed   = "Login failed. Please try again."
	msgTooManyLogins = "Too many login attempts. Please try again later."
)

// LoginClient is satisfied by *backend.Client.
type LoginClient interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResult, error)
}

var (
	client   LoginClient
	sessions *SessionStore
	limiter  *ratelimit.Limiter
	onLogout func(sessionID string)
)

// InitHandlers must be called during server startup before handling requests.
// logout runs after a session ends, with its id.
func InitHandlers(c LoginClient, store *SessionStore, l *ratelimit.Limiter, logout func(sessionID string)) {
	client = c
	sessions = store
	limiter = l
	onLogout = logout
}

type loginResponse struct {
	UniqueID string `json:"unique_id"`
	Email    string `json:"email"`
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if client == nil || sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var input forms.Login
	if err := apiutil.DecodeInput(r, &input); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if errs := input.Validate(); len(errs) > 0 {
		apiutil.WriteValidationErrors(w, r, errs)
		return
	}

	ip := ""
	if limiter != nil {
		ip = limiter.ClientIP(r)
		if result := limiter.CheckLogin(input.Email, ip); !result.Allowed {
			ratelimit.LogRateLimitExceeded(r.Context(), input.Email, ip, result.Reason)
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: msgTooManyLogins})
			return
		}
	}

	result, err := client.Login(r.Context(), backend.LoginRequest{
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	})
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			if limiter != nil && limiter.RecordFailure(input.Email, ip) {
				logger.Warn().Str("identifier", ratelimit.SanitizeIdentifier(input.Email)).Msg("Login locked out")
			}
			message := apiErr.Message
			if message == "" {
				message = msgInvalidLogin
			}
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: message, Err: err})
			return
		}
		logger.Error().Err(err).Msg("Backend login failed")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadGateway, Message: msgLoginFailed, Err: err})
		return
	}

	identity, err := sessions.Create(w, *result, input.Email)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to start session")
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: msgLoginFailed, Err: err})
		return
	}
	if limiter != nil {
		limiter.Reset(input.Email)
	}
	logger.Info().Str("unique_id", identity.UniqueID).Msg("User logged in")

	if htmx.IsRequest(r) {
		htmx.Redirect(w, "/profile")
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, loginResponse{UniqueID: identity.UniqueID, Email: identity.Email}); err != nil {
		logger.Error().Err(err).Msg("Failed to write login response")
	}
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if sessions == nil {
		logger.Error().Msg("Auth handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	identity, ok := sessions.Clear(w, r)
	if ok {
		if onLogout != nil {
			onLogout(identity.SessionID)
		}
		logger.Info().Str("unique_id", identity.UniqueID).Msg("User logged out")
	}

	if htmx.IsRequest(r) {
		htmx.Redirect(w, "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequireIdentity writes 401 and returns false when the request has no session.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (*Identity, bool) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		log.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("Unauthenticated request")
		if htmx.IsRequest(r) {
			htmx.Redirect(w, "/")
		}
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusUnauthorized, Message: "Please log in first"})
		return nil, false
	}
	return identity, true
}
