// internal/api/referees/handlers.go
package referees

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/submission"
)

const (
	successMessage = "Registration successful!"
	failureMessage = "Failed to register referee."
)

var (
	sender submission.Sender
	sports *catalog.Catalog
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s submission.Sender, cat *catalog.Catalog) {
	sender = s
	sports = cat
}

// POST /api/v1/referees
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if sender == nil {
		logger.Error().Msg("Referee handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var input forms.Referee
	if err := apiutil.DecodeInput(r, &input); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	outcome, err := submission.Submit(r.Context(), sender, submission.Attempt{
		Method: http.MethodPost,
		Path:   backend.RefereePath,
		Prepare: func() (any, error) {
			if errs := input.Validate(sports); len(errs) > 0 {
				return nil, errs
			}
			input.Name = strings.TrimSpace(input.Name)
			input.Email = strings.TrimSpace(input.Email)
			return input, nil
		},
		SuccessMessage: successMessage,
		FailureMessage: failureMessage,
	})
	var errs forms.Errors
	if errors.As(err, &errs) {
		apiutil.WriteValidationErrors(w, r, errs)
		return
	}
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	logger.Info().Str("sport", input.Sport).Str("state", outcome.State.String()).Msg("Referee sign-up submitted")
	apiutil.WriteOutcome(w, r, outcome)
}
