// internal/api/preregistrations/handlers.go
package preregistrations

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/api/apiutil"
	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/submission"
)

const (
	successMessage = "Pre-registration received!"
	failureMessage = "Failed to register. Please try again."
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

type validator interface {
	Validate(c *catalog.Catalog) forms.Errors
}

// POST /api/v1/preregistrations/team
func HandleTeam(w http.ResponseWriter, r *http.Request) {
	var input forms.TeamPreRegistration
	handle(w, r, backend.PreRegisterTeamPath, &input)
}

// POST /api/v1/preregistrations/contingent
func HandleContingent(w http.ResponseWriter, r *http.Request) {
	var input forms.ContingentPreRegistration
	handle(w, r, backend.PreRegisterContingentPath, &input)
}

func handle[T validator](w http.ResponseWriter, r *http.Request, path string, input T) {
	logger := log.Ctx(r.Context()).With().Str("backend_path", path).Logger()

	if sender == nil {
		logger.Error().Msg("Pre-registration handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := apiutil.DecodeInput(r, input); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	outcome, err := submission.Submit(r.Context(), sender, submission.Attempt{
		Method: http.MethodPost,
		Path:   path,
		Prepare: func() (any, error) {
			if errs := input.Validate(sports); len(errs) > 0 {
				return nil, errs
			}
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

	logger.Info().Str("state", outcome.State.String()).Msg("Pre-registration submitted")
	apiutil.WriteOutcome(w, r, outcome)
}
