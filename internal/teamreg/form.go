package teamreg

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/backend"
	"github.com/varchas/website/internal/forms"
	"github.com/varchas/website/internal/registration"
	"github.com/varchas/website/internal/submission"
)

const (
	createSuccessMessage = "Team created successfully!"
	createFailureMessage = "Failed to register. Please try again."
	joinSuccessMessage   = "Joined team successfully!"
	joinFailureMessage   = "Failed to join team. Please try again."
)

// Form is one open registration form. Edits and the submission guard share the
// form lock, which the controller holds until it is Submitting; that state
// keeps inputs disabled while the request is out.
type Form struct {
	id     string
	owner  string
	sport  string
	sender submission.Sender
	clock  clockwork.Clock

	controller *submission.Controller

	mu       sync.Mutex
	draft    *registration.Draft
	joinErr  string
	lastUsed time.Time
}

func (f *Form) ID() string {
	return f.id
}

func (f *Form) touch() {
	f.mu.Lock()
	f.lastUsed = f.clock.Now()
	f.mu.Unlock()
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Form) ToggleCategory(category string) (View, error) {
	return f.edit(func(d *registration.Draft) error {
		return d.ToggleCategory(category)
	})
}

func (f *Form) SetTeamName(category, value string) (View, error) {
	return f.edit(func(d *registration.Draft) error {
		return d.SetTeamName(category, value)
	})
}

func (f *Form) SetTeamSize(category, raw string) (View, error) {
	return f.edit(func(d *registration.Draft) error {
		return d.SetTeamSize(category, raw)
	})
}

func (f *Form) SetPlayerID(category, slot, value string) (View, error) {
	return f.edit(func(d *registration.Draft) error {
		return d.SetPlayerID(category, slot, value)
	})
}

func (f *Form) edit(apply func(*registration.Draft) error) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.controller.IsOpen() {
		return f.viewLocked(), submission.ErrClosed
	}
	if f.controller.Busy() {
		return f.viewLocked(), ErrInputsDisabled
	}
	f.lastUsed = f.clock.Now()
	err := apply(f.draft)
	return f.viewLocked(), err
}

// Submit validates the whole draft and, when it is clean, sends the create
// request with token. Validation failures come back as forms.Errors and are
// also recorded on the draft.
func (f *Form) Submit(ctx context.Context, token string) (View, error) {
	logger := log.Ctx(ctx).With().Str("form_id", f.id).Logger()

	attempt := submission.Attempt{
		Method: http.MethodPost,
		Path:   backend.CreateTeamPath,
		Token:  token,
		Lock:   &f.mu,
		Prepare: func() (any, error) {
			f.lastUsed = f.clock.Now()

			payload, err := registration.BuildCreatePayload(f.draft)
			var errs forms.Errors
			if errors.As(err, &errs) {
				f.draft.ReplaceErrors(errs)
				return nil, err
			}
			if err != nil {
				return nil, err
			}
			f.draft.ReplaceErrors(nil)
			return payload, nil
		},
		SuccessMessage: createSuccessMessage,
		FailureMessage: createFailureMessage,
	}

	outcome, err := f.controller.Submit(ctx, f.sender, attempt)
	if err != nil {
		logger.Debug().Err(err).Msg("Team registration not sent")
		return f.View(), err
	}
	logger.Info().Str("state", outcome.State.String()).Msg("Team registration submitted")
	return f.View(), nil
}

// Join sends a join request for an existing team id. It does not touch the
// category draft.
func (f *Form) Join(ctx context.Context, token, teamID string) (View, error) {
	logger := log.Ctx(ctx).With().Str("form_id", f.id).Logger()

	attempt := submission.Attempt{
		Method: http.MethodPost,
		Path:   backend.JoinTeamPath,
		Token:  token,
		Lock:   &f.mu,
		Prepare: func() (any, error) {
			f.lastUsed = f.clock.Now()

			payload, err := registration.BuildJoinPayload(teamID)
			var errs forms.Errors
			if errors.As(err, &errs) {
				f.joinErr = errs[forms.FormKey]
				return nil, err
			}
			f.joinErr = ""
			return payload, err
		},
		SuccessMessage: joinSuccessMessage,
		FailureMessage: joinFailureMessage,
	}

	outcome, err := f.controller.Submit(ctx, f.sender, attempt)
	if err != nil {
		logger.Debug().Err(err).Msg("Team join not sent")
		return f.View(), err
	}
	logger.Info().Str("state", outcome.State.String()).Msg("Team join submitted")
	return f.View(), nil
}

func (f *Form) touchedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsed
}

func (f *Form) viewLocked() View {
	return buildView(f.id, f.draft, f.controller, f.joinErr)
}
