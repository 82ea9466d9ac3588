package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/retry"
)

// Confirm locks in the draft and creates its upload form. A token is
// bound to the user only once a form exists; on exhausted retries the
// draft stays confirmed with no token and ErrFormCreationFailed is
// returned.
func (s *Service) Confirm(ctx context.Context, userID string) (*submission.Draft, error) {
	d, err := s.update(userID, func(d *submission.Draft) error {
		if d.Status != submission.StatusAwaitingConfirmation && d.Status != submission.StatusConfirmed {
			return fmt.Errorf("%w: cannot confirm while %s", submission.ErrInvalidTransition, d.Status)
		}
		if err := d.RequireAntecedents(submission.StatusConfirmed); err != nil {
			return err
		}
		if !d.SharesValid() {
			return &ShareError{Sum: commission.SumShares(d.Shares())}
		}
		d.Recalculate()
		return d.TransitionTo(submission.StatusConfirmed)
	})
	if err != nil {
		return d, err
	}

	token := uuid.NewString()
	log := s.logger.With().Str("user_id", userID).Str("draft_id", d.DraftID.String()).Logger()

	var form *submission.UploadForm
	policy := retry.Policy{
		Attempts:  s.opts.FormAttempts,
		Delays:    s.opts.FormDelays,
		Retryable: func(err error) bool { return !errors.Is(err, submission.ErrPermanent) },
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("upload form creation failed, retrying")
		},
	}
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		f, err := s.forms.CreateUploadForm(ctx, d.Project, token)
		if err != nil {
			return err
		}
		form = f
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("upload form creation gave up")
		return d, fmt.Errorf("%w: %w", ErrFormCreationFailed, err)
	}

	bound, err := s.update(userID, func(cur *submission.Draft) error {
		if cur.DraftID != d.DraftID || cur.Status != submission.StatusConfirmed {
			return fmt.Errorf("%w: draft changed while the form was created", submission.ErrSessionExpired)
		}
		cur.SessionToken = token
		cur.FormID = form.FormID
		cur.FormURL = form.URL
		return cur.TransitionTo(submission.StatusAwaitingExternalForm)
	})
	if err != nil {
		log.Warn().Err(err).Str("form_id", form.FormID).Msg("upload form orphaned")
		return bound, err
	}
	s.sessions.BindToken(token, userID)

	log.Info().Str("form_id", form.FormID).Msg("upload form created")
	return bound, nil
}
