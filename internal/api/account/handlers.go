// internal/api/account/handlers.go
package account

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/api/htmx"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/models"
	"github.com/varchas/website/internal/submission"
	"github.com/varchas/website/internal/templates/layouts"
)

const (
	signupSuccessMessage  = "Registration successful!"
	signupFailureMessage  = "Registration failed"
	profileSuccessMessage = "Registration Successful!"
	profileFailureMessage = "Update failed"
)

// Client is satisfied by *backend.Client.
type Client interface {
	submission.Sender
	FetchProfile(ctx context.Context, token string) (*backend.Profile, error)
}

var (
	client Client
	sports *catalog.Catalog
	theme  *models.Theme
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c Client, cat *catalog.Catalog, t *models.Theme) {
	client = c
	sports = cat
	theme = t
}

type signupPayload struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type signupResponse struct {
	submission.Outcome
	Email string `json:"email,omitempty"`
}

// POST /api/v1/account/register
func HandleRegister(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !ensureClient(w, r) {
		return
	}

	var input forms.Credentials
	if err := apiutil.DecodeInput(r, &input); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	email := strings.TrimSpace(input.Email)

	outcome, err := submission.Submit(r.Context(), client, submission.Attempt{
		Method: http.MethodPost,
		Path:   backend.UserRegisterPath,
		Prepare: func() (any, error) {
			if errs := input.Validate(); len(errs) > 0 {
				return nil, errs
			}
			return signupPayload{Email: email, Password: input.Password, ConfirmPassword: input.Confirm}, nil
		},
		Accept:         submission.MessageContains("success"),
		SuccessMessage: signupSuccessMessage,
		FailureMessage: signupFailureMessage,
	})
	if err != nil {
		writeInputError(w, r, err)
		return
	}
	logger.Info().Str("state", outcome.State.String()).Msg("Account signup submitted")

	if outcome.State != submission.Succeeded {
		apiutil.WriteOutcome(w, r, outcome)
		return
	}
	if htmx.IsRequest(r) {
		// Second step, prefilled with the email just registered.
		apiutil.RenderHTML(r.Context(), w, http.StatusOK, profileFormComponent(forms.Profile{Email: email}, sports), nil)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, signupResponse{Outcome: outcome, Email: email}); err != nil {
		logger.Error().Err(err).Msg("Failed to write signup response")
	}
}

// PUT /api/v1/account/profile
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !ensureClient(w, r) {
		return
	}

	var input forms.Profile
	if err := apiutil.DecodeInput(r, &input); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	token := ""
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		token = identity.Token
	}

	outcome, err := submission.Submit(r.Context(), client, submission.Attempt{
		Method: http.MethodPut,
		Path:   backend.UpdateInfoPath,
		Token:  token,
		Prepare: func() (any, error) {
			if errs := input.Validate(sports); len(errs) > 0 {
				return nil, errs
			}
			return input.Normalized(), nil
		},
		SuccessMessage: profileSuccessMessage,
		FailureMessage: profileFailureMessage,
	})
	if err != nil {
		writeInputError(w, r, err)
		return
	}
	logger.Info().Str("state", outcome.State.String()).Msg("Profile update submitted")
	apiutil.WriteOutcome(w, r, outcome)
}

// GET /profile
func HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		http.Redirect(w, r, "/#login", http.StatusSeeOther)
		return
	}
	if !ensureClient(w, r) {
		return
	}

	data := ProfilePageData{UniqueID: identity.UniqueID, Sports: registrableSports()}
	profile, err := client.FetchProfile(r.Context(), identity.Token)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load profile")
		data.LoadError = "We could not load your profile right now. Please try again."
	} else {
		data.Profile = *profile
	}

	page := layouts.Page{Title: "Profile", Theme: theme, UniqueID: identity.UniqueID}
	apiutil.RenderHTML(r.Context(), w, http.StatusOK, layouts.Base(page, profilePageComponent(data)), nil)
}

func registrableSports() []catalog.Sport {
	if sports == nil {
		return nil
	}
	return sports.Sports
}

func ensureClient(w http.ResponseWriter, r *http.Request) bool {
	if client == nil {
		log.Ctx(r.Context()).Error().Msg("Account handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

func writeInputError(w http.ResponseWriter, r *http.Request, err error) {
	var errs forms.Errors
	if errors.As(err, &errs) {
		apiutil.WriteValidationErrors(w, r, errs)
		return
	}
	apiutil.WriteError(w, r, err)
}
