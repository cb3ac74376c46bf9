// Package submission runs validate, send and interpret cycles against the
// backend and tracks their outcome for an open form.
package submission

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/backend"
)

type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Outcome struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// Sender is satisfied by *backend.Client.
type Sender interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
}

// Attempt describes one submission. Prepare validates local state and builds
// the request body; an error from Prepare stops the attempt before any network
// call is made.
type Attempt struct {
	Method  string
	Path    string
	Token   string
	Prepare func() (any, error)
	// Lock, when set, is held by Controller.Submit from before Prepare until
	// the controller is Submitting, so edits guarded by the same lock cannot
	// slip in after the body is built. Prepare must not take it again.
	Lock sync.Locker
	// Accept optionally narrows which 2xx replies count as success.
	Accept         func(*backend.Response) bool
	SuccessMessage string
	FailureMessage string
}

// Submit runs attempt without tracking state. It returns an error only when
// Prepare rejected the input; backend problems become a Failed outcome.
func Submit(ctx context.Context, sender Sender, attempt Attempt) (Outcome, error) {
	body, err := attempt.prepare()
	if err != nil {
		return Outcome{State: Idle}, err
	}
	return send(ctx, sender, attempt, body), nil
}

func (a Attempt) prepare() (any, error) {
	if a.Prepare == nil {
		return nil, nil
	}
	return a.Prepare()
}

func send(ctx context.Context, sender Sender, attempt Attempt, body any) Outcome {
	logger := log.Ctx(ctx)

	resp, err := sender.Do(ctx, backend.Request{
		Method: attempt.Method,
		Path:   attempt.Path,
		Token:  attempt.Token,
		Body:   body,
	})
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			logger.Info().Int("status", apiErr.Status).Str("backend_path", attempt.Path).Msg("Backend rejected submission")
			return Outcome{State: Failed, Message: orDefault(apiErr.Message, attempt.FailureMessage)}
		}
		logger.Warn().Err(err).Str("backend_path", attempt.Path).Msg("Submission failed")
		return Outcome{State: Failed, Message: attempt.FailureMessage}
	}

	if attempt.Accept != nil && !attempt.Accept(resp) {
		logger.Info().Int("status", resp.Status).Str("backend_path", attempt.Path).Msg("Backend reply not accepted")
		return Outcome{State: Failed, Message: orDefault(resp.Message, attempt.FailureMessage)}
	}
	return Outcome{State: Succeeded, Message: orDefault(resp.Message, attempt.SuccessMessage)}
}

// MessageContains accepts replies whose message mentions word, case-insensitively.
func MessageContains(word string) func(*backend.Response) bool {
	word = strings.ToLower(word)
	return func(resp *backend.Response) bool {
		return strings.Contains(strings.ToLower(resp.Message), word)
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
