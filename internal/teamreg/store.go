// Package teamreg keeps the open team registration forms of every visitor and
// drives their edits and submissions.
package teamreg

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/varchas/website/internal/catalog"
	"github.com/varchas/website/internal/registration"
	"github.com/varchas/website/internal/submission"
)

const (
	defaultAutoCloseDelay = 2 * time.Second
	defaultFormTTL        = 30 * time.Minute
)

var (
	ErrFormNotFound   = errors.New("registration form not found")
	ErrInputsDisabled = errors.New("inputs are disabled while submitting")
	ErrMissingOwner   = errors.New("form owner is required")
)

type Options struct {
	// AutoCloseDelay is how long a form stays visible after a successful
	// submission. Zero uses the default; a negative value disables auto-close.
	AutoCloseDelay time.Duration
	// TTL is how long an untouched form survives a Sweep.
	TTL   time.Duration
	Clock clockwork.Clock
}

// Store holds open forms keyed by id. A form is only visible to the owner that
// opened it.
type Store struct {
	catalog   *catalog.Catalog
	sender    submission.Sender
	clock     clockwork.Clock
	autoClose time.Duration
	ttl       time.Duration

	mu    sync.RWMutex
	forms map[string]*Form
}

func NewStore(cat *catalog.Catalog, sender submission.Sender, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.AutoCloseDelay == 0 {
		opts.AutoCloseDelay = defaultAutoCloseDelay
	}
	if opts.AutoCloseDelay < 0 {
		opts.AutoCloseDelay = 0
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultFormTTL
	}
	return &Store{
		catalog:   cat,
		sender:    sender,
		clock:     opts.Clock,
		autoClose: opts.AutoCloseDelay,
		ttl:       opts.TTL,
		forms:     make(map[string]*Form),
	}
}

// Open starts a fresh form for sport, given by name or slug.
func (s *Store) Open(owner, sport string) (*Form, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}
	def, ok := s.catalog.Lookup(sport)
	if !ok {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownSport, sport)
	}

	id := uuid.NewString()
	form := &Form{
		id:       id,
		owner:    owner,
		sport:    def.Name,
		sender:   s.sender,
		clock:    s.clock,
		draft:    registration.NewDraft(def),
		lastUsed: s.clock.Now(),
	}
	form.controller = submission.NewController(
		submission.WithClock(s.clock),
		submission.WithAutoClose(s.autoClose, func() {
			s.remove(id)
			log.Debug().Str("form_id", id).Msg("Registration form auto-closed")
		}),
	)

	s.mu.Lock()
	s.forms[id] = form
	s.mu.Unlock()

	log.Debug().Str("form_id", id).Str("sport", def.Name).Msg("Registration form opened")
	return form, nil
}

// Resume returns the owner's open form for sport when one is still editable,
// and opens a new one otherwise. The bool reports whether a form was reused.
func (s *Store) Resume(owner, sport string) (*Form, bool, error) {
	if owner == "" {
		return nil, false, ErrMissingOwner
	}
	def, ok := s.catalog.Lookup(sport)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", catalog.ErrUnknownSport, sport)
	}

	s.mu.RLock()
	var found *Form
	for _, form := range s.forms {
		if form.owner != owner || form.sport != def.Name {
			continue
		}
		if !form.controller.IsOpen() || form.controller.Outcome().State == submission.Succeeded {
			continue
		}
		found = form
		break
	}
	s.mu.RUnlock()

	if found != nil {
		found.touch()
		return found, true, nil
	}
	form, err := s.Open(owner, def.Name)
	return form, false, err
}

// Get returns the owner's form. Forms of other owners are reported as missing.
func (s *Store) Get(owner, id string) (*Form, error) {
	s.mu.RLock()
	form, ok := s.forms[id]
	s.mu.RUnlock()
	if !ok || form.owner != owner {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// Close closes and forgets the form. Any in-flight submission result is
// discarded when it arrives.
func (s *Store) Close(owner, id string) error {
	form, err := s.Get(owner, id)
	if err != nil {
		return err
	}
	form.controller.Close()
	s.remove(id)
	return nil
}

// CloseOwner drops every form opened by owner, used on logout.
func (s *Store) CloseOwner(owner string) int {
	s.mu.Lock()
	var closed []*Form
	for id, form := range s.forms {
		if form.owner == owner {
			closed = append(closed, form)
			delete(s.forms, id)
		}
	}
	s.mu.Unlock()

	for _, form := range closed {
		form.controller.Close()
	}
	return len(closed)
}

// Sweep drops forms untouched for longer than the TTL. Forms with a submission
// in flight are kept until it completes.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []*Form
	for id, form := range s.forms {
		if form.controller.Busy() || now.Sub(form.touchedAt()) < s.ttl {
			continue
		}
		expired = append(expired, form)
		delete(s.forms, id)
	}
	s.mu.Unlock()

	for _, form := range expired {
		form.controller.Close()
	}
	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("Swept idle registration forms")
	}
	return len(expired)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	delete(s.forms, id)
	s.mu.Unlock()
}
