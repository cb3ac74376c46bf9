// internal/api/teams/handlers.go
package teams

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/api/auth"
	"github.com/varchas/website/internal/api/htmx"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/models"
	"github.com/varchas/website/internal/registration"
	"github.com/varchas/website/internal/submission"
	"github.com/varchas/website/internal/teamreg"
	"github.com/varchas/website/internal/templates/layouts"
)

var (
	store *teamreg.Store
	theme *models.Theme
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *teamreg.Store, t *models.Theme) {
	store = s
	theme = t
}

type openRequest struct {
	Sport string `json:"sport"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type joinRequest struct {
	TeamID string `json:"teamId"`
}

// GET /sports/{sport}/register
// A reload picks up the form the session already has open for the sport.
func HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		http.Redirect(w, r, "/#login", http.StatusSeeOther)
		return
	}
	if !ensureStore(w, r) {
		return
	}

	form, resumed, err := store.Resume(identity.SessionID, r.PathValue("sport"))
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	view := form.View()
	logger.Info().Str("form_id", view.ID).Str("sport", view.Sport).Bool("resumed", resumed).Msg("Opened registration page")

	page := layouts.Page{Title: view.Sport, Theme: theme, UniqueID: identity.UniqueID}
	apiutil.RenderHTML(r.Context(), w, http.StatusOK, layouts.Base(page, registerPageComponent(view)), nil)
}

// POST /api/v1/teamreg
func HandleOpen(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	identity, ok := auth.RequireIdentity(w, r)
	if !ok || !ensureStore(w, r) {
		return
	}

	var req openRequest
	if err := apiutil.DecodeInput(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if strings.TrimSpace(req.Sport) == "" {
		apiutil.WriteValidationErrors(w, r, forms.Errors{"sport": "Sport is required"})
		return
	}

	form, err := store.Open(identity.SessionID, req.Sport)
	if err != nil {
		writeFormError(w, r, err)
		return
	}
	view := form.View()
	logger.Info().Str("form_id", view.ID).Str("sport", view.Sport).Msg("Opened registration form")
	writeView(w, r, http.StatusCreated, view)
}

// GET /api/v1/teamreg/{form}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	writeView(w, r, http.StatusOK, form.View())
}

// DELETE /api/v1/teamreg/{form}
func HandleClose(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok || !ensureStore(w, r) {
		return
	}

	id := r.PathValue("form")
	if err := store.Close(identity.SessionID, id); err != nil {
		writeFormError(w, r, err)
		return
	}
	log.Ctx(r.Context()).Info().Str("form_id", id).Msg("Closed registration form")

	if htmx.IsRequest(r) {
		apiutil.RenderHTML(r.Context(), w, http.StatusOK, closedComponent(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/teamreg/{form}/categories/{category}/toggle
func HandleToggleCategory(w http.ResponseWriter, r *http.Request) {
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	view, err := form.ToggleCategory(r.PathValue("category"))
	respond(w, r, view, err)
}

// POST /api/v1/teamreg/{form}/categories/{category}/name
func HandleSetTeamName(w http.ResponseWriter, r *http.Request) {
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}
	view, err := form.SetTeamName(r.PathValue("category"), value)
	respond(w, r, view, err)
}

// POST /api/v1/teamreg/{form}/categories/{category}/size
func HandleSetTeamSize(w http.ResponseWriter, r *http.Request) {
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}
	view, err := form.SetTeamSize(r.PathValue("category"), value)
	respond(w, r, view, err)
}

// POST /api/v1/teamreg/{form}/categories/{category}/players/{slot}
func HandleSetPlayerID(w http.ResponseWriter, r *http.Request) {
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	value, ok := decodeValue(w, r)
	if !ok {
		return
	}
	view, err := form.SetPlayerID(r.PathValue("category"), r.PathValue("slot"), value)
	respond(w, r, view, err)
}

// POST /api/v1/teamreg/{form}/submit
func HandleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}
	form, ok := loadForm(w, r)
	if !ok {
		return
	}
	view, err := form.Submit(r.Context(), identity.Token)
	respond(w, r, view, err)
}

// POST /api/v1/teamreg/{form}/join
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}
	form, ok := loadForm(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := apiutil.DecodeInput(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	view, err := form.Join(r.Context(), identity.Token, req.TeamID)
	respond(w, r, view, err)
}

func ensureStore(w http.ResponseWriter, r *http.Request) bool {
	if store == nil {
		log.Ctx(r.Context()).Error().Msg("Team registration handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

func loadForm(w http.ResponseWriter, r *http.Request) (*teamreg.Form, bool) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok || !ensureStore(w, r) {
		return nil, false
	}

	form, err := store.Get(identity.SessionID, r.PathValue("form"))
	if err != nil {
		if htmx.IsRequest(r) && errors.Is(err, teamreg.ErrFormNotFound) {
			// Auto-closed forms poll once more and land here.
			apiutil.RenderHTML(r.Context(), w, http.StatusOK, closedComponent(), nil)
			return nil, false
		}
		writeFormError(w, r, err)
		return nil, false
	}
	return form, true
}

func decodeValue(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req valueRequest
	if err := apiutil.DecodeInput(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return "", false
	}
	return req.Value, true
}

// respond writes the form after an edit or submission. Validation failures
// are part of the view, so HTMX gets the re-rendered fragment for them.
func respond(w http.ResponseWriter, r *http.Request, view teamreg.View, err error) {
	if err == nil {
		writeView(w, r, http.StatusOK, view)
		return
	}

	var errs forms.Errors
	if errors.As(err, &errs) {
		if htmx.IsRequest(r) {
			writeView(w, r, http.StatusOK, view)
			return
		}
		apiutil.WriteValidationErrors(w, r, errs)
		return
	}
	writeFormError(w, r, err)
}

func writeView(w http.ResponseWriter, r *http.Request, status int, view teamreg.View) {
	if htmx.IsRequest(r) {
		apiutil.RenderHTML(r.Context(), w, status, formComponent(view), nil)
		return
	}
	if err := apiutil.WriteJSON(w, status, view); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("form_id", view.ID).Msg("Failed to write form response")
	}
}

func writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("form_id", r.PathValue("form")).Msg("Registration form error")
	}
	apiutil.WriteError(w, r, apiutil.HandlerError{Status: status, Message: messageFor(err), Err: err})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, teamreg.ErrFormNotFound), errors.Is(err, catalog.ErrUnknownSport):
		return http.StatusNotFound
	case errors.Is(err, submission.ErrClosed):
		return http.StatusGone
	case errors.Is(err, teamreg.ErrInputsDisabled),
		errors.Is(err, submission.ErrInFlight),
		errors.Is(err, submission.ErrAlreadySubmitted),
		errors.Is(err, submission.ErrDiscarded):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, registration.ErrCategoryNotSelected),
		errors.Is(err, registration.ErrSpecialMode),
		errors.Is(err, registration.ErrNotSpecialMode),
		errors.Is(err, registration.ErrUnknownPlayerSlot),
		errors.Is(err, teamreg.ErrMissingOwner):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	msg := err.Error()
	return strings.ToUpper(msg[:1]) + msg[1:]
}
