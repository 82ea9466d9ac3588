package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/application/completion"
	"github.com/execution-hub/commission-bot/internal/application/session"
	"github.com/execution-hub/commission-bot/internal/application/transfer"
	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/retry"
)

// RecordStore persists completed submissions.
type RecordStore interface {
	Append(ctx context.Context, rec submission.Record) (int, error)
	FastCommission(ctx context.Context, project string) (decimal.Decimal, error)
}

// Transferer moves form attachments into storage.
type Transferer interface {
	Transfer(ctx context.Context, target transfer.Target, files []submission.RemoteFile) ([]submission.UploadedFile, error)
}

// Notifier dispatches structured events to users and channels.
type Notifier interface {
	Dispatch(ctx context.Context, event notification.Event) error
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

// Options tunes retry schedules and the deferred re-check.
type Options struct {
	FormAttempts int
	FormDelays   []time.Duration
	RecheckDelay time.Duration
	// RecheckTimeout bounds the background re-check.
	RecheckTimeout time.Duration
	AfterFunc      AfterFunc
	Now            func() time.Time
}

// DefaultOptions returns the production schedule: three form attempts
// backing off 2s, 4s, 8s and one re-check a minute after a manual poll.
func DefaultOptions() Options {
	return Options{
		FormAttempts:   3,
		FormDelays:     retry.Exponential(2*time.Second, 3),
		RecheckDelay:   time.Minute,
		RecheckTimeout: 2 * time.Minute,
	}
}

// Deps groups the collaborators of the workflow service.
type Deps struct {
	Sessions *session.Store
	Tracker  *completion.Tracker
	Forms    submission.FormGateway
	Transfer Transferer
	Records  RecordStore
	Notifier Notifier
}

// Service drives a draft from first input to a persisted record.
type Service struct {
	sessions *session.Store
	tracker  *completion.Tracker
	forms    submission.FormGateway
	transfer Transferer
	records  RecordStore
	notifier Notifier
	opts     Options
	logger   zerolog.Logger

	timerMu sync.Mutex
	timers  map[string]func() bool
}

// NewService creates a workflow service.
func NewService(deps Deps, opts Options, logger zerolog.Logger) *Service {
	def := DefaultOptions()
	if opts.FormAttempts < 1 {
		opts.FormAttempts = def.FormAttempts
	}
	if opts.FormDelays == nil {
		opts.FormDelays = def.FormDelays
	}
	if opts.RecheckTimeout <= 0 {
		opts.RecheckTimeout = def.RecheckTimeout
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		}
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		sessions: deps.Sessions,
		tracker:  deps.Tracker,
		forms:    deps.Forms,
		transfer: deps.Transfer,
		records:  deps.Records,
		notifier: deps.Notifier,
		opts:     opts,
		logger:   logger.With().Str("service", "workflow").Logger(),
		timers:   make(map[string]func() bool),
	}
}

// Start opens a draft for userID. An unfinished draft is resumed instead.
func (s *Service) Start(ctx context.Context, userID, displayName string) (*submission.Draft, bool, error) {
	if d, ok := s.sessions.Get(userID); ok && !d.IsTerminal() {
		return d, true, nil
	}
	d := s.sessions.Put(submission.NewDraft(userID, displayName))
	s.logger.Info().
		Str("user_id", userID).
		Str("draft_id", d.DraftID.String()).
		Msg("draft started")
	return d, false, nil
}

// Draft returns a copy of the user's draft.
func (s *Service) Draft(ctx context.Context, userID string) (*submission.Draft, error) {
	d, ok := s.sessions.Get(userID)
	if !ok {
		return nil, submission.ErrSessionExpired
	}
	return d, nil
}

// SubmitProject stores the project fields.
func (s *Service) SubmitProject(ctx context.Context, userID string, info submission.ProjectInfo) (*submission.Draft, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return s.update(userID, func(d *submission.Draft) error {
		if err := d.TransitionTo(submission.StatusCollecting); err != nil {
			return err
		}
		d.Project = info
		d.TotalCommission = ""
		return nil
	})
}

// SetParticipant fills or overwrites the participant at slot (0-based).
// Shares can still be corrected while the customer step is open.
func (s *Service) SetParticipant(ctx context.Context, userID string, slot int, p submission.Participant) (*submission.Draft, error) {
	return s.update(userID, func(d *submission.Draft) error {
		if d.Status != submission.StatusCollecting && d.Status != submission.StatusAwaitingCustomer {
			return fmt.Errorf("%w: cannot edit participants while %s", submission.ErrInvalidTransition, d.Status)
		}
		if d.Project.Validate() != nil {
			return fmt.Errorf("%w: project details missing", submission.ErrSessionExpired)
		}
		return d.SetParticipant(slot, p)
	})
}

// Advance moves from participant entry to the customer step.
func (s *Service) Advance(ctx context.Context, userID string) (*submission.Draft, error) {
	return s.update(userID, func(d *submission.Draft) error {
		if d.Project.Validate() != nil {
			return fmt.Errorf("%w: project details missing", submission.ErrSessionExpired)
		}
		if len(d.FilledParticipants()) == 0 {
			return submission.ErrNoParticipants
		}
		if err := d.TransitionTo(submission.StatusAwaitingCustomer); err != nil {
			return err
		}
		d.Recalculate()
		return nil
	})
}

// SubmitCustomer stores the customer fields and, when they and the
// participant shares are valid, moves to confirmation. The fields are kept
// even when validation fails so the user only corrects what is wrong.
func (s *Service) SubmitCustomer(ctx context.Context, userID string, info submission.CustomerInfo) (*submission.Draft, error) {
	var validation error
	d, err := s.update(userID, func(d *submission.Draft) error {
		if d.Status != submission.StatusAwaitingCustomer {
			return fmt.Errorf("%w: customer details not expected while %s", submission.ErrInvalidTransition, d.Status)
		}
		if err := d.RequireAntecedents(submission.StatusAwaitingCustomer); err != nil {
			return err
		}
		d.Customer = info
		d.Recalculate()
		if err := info.Validate(); err != nil {
			validation = err
			return nil
		}
		if !d.SharesValid() {
			validation = &ShareError{Sum: commission.SumShares(d.Shares())}
			return nil
		}
		return d.TransitionTo(submission.StatusAwaitingConfirmation)
	})
	if err != nil {
		return d, err
	}
	return d, validation
}

// Edit returns the draft to the stage that collects section. Nothing
// already entered is reset.
func (s *Service) Edit(ctx context.Context, userID string, section submission.Section) (*submission.Draft, error) {
	stage, ok := submission.StageFor(section)
	if !ok {
		return nil, fmt.Errorf("%w: unknown section %q", submission.ErrInvalidTransition, section)
	}
	return s.update(userID, func(d *submission.Draft) error {
		if d.Status == submission.StatusCollecting && stage == submission.StatusCollecting {
			return nil
		}
		if d.Status != submission.StatusAwaitingCustomer && d.Status != submission.StatusAwaitingConfirmation {
			return fmt.Errorf("%w: cannot edit while %s", submission.ErrInvalidTransition, d.Status)
		}
		return d.TransitionTo(stage)
	})
}

// Summary returns the draft with payouts recalculated.
func (s *Service) Summary(ctx context.Context, userID string) (*submission.Draft, error) {
	d, ok := s.sessions.Get(userID)
	if !ok {
		return nil, submission.ErrSessionExpired
	}
	if err := d.RequireAntecedents(d.Status); err != nil {
		return nil, err
	}
	d.Recalculate()
	return d, nil
}

// Cancel discards a draft that has not finished. An upload form that was
// already created is left in place; its token simply stops matching.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	d, ok := s.sessions.Get(userID)
	if !ok {
		return submission.ErrSessionExpired
	}
	if d.IsTerminal() {
		return fmt.Errorf("%w: draft already %s", submission.ErrInvalidTransition, d.Status)
	}
	s.stopRecheck(userID)
	s.sessions.Delete(userID)
	s.logger.Info().
		Str("user_id", userID).
		Str("status", string(d.Status)).
		Bool("form_created", d.FormID != "").
		Msg("draft cancelled")
	return nil
}

// ActiveSessions reports how many drafts are in flight.
func (s *Service) ActiveSessions() int {
	return s.sessions.Len()
}

func (s *Service) update(userID string, fn func(d *submission.Draft) error) (*submission.Draft, error) {
	d, err := s.sessions.Update(userID, fn)
	if errors.Is(err, session.ErrNotFound) {
		return nil, submission.ErrSessionExpired
	}
	return d, err
}
