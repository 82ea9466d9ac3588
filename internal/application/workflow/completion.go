package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/application/transfer"
	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// HandleFormSubmission processes a pushed form completion. Submissions that
// cannot be attributed to a live token are ignored.
func (s *Service) HandleFormSubmission(ctx context.Context, sub submission.FormSubmission) (Outcome, error) {
	log := s.logger.With().Str("submission_id", sub.ID).Str("form_id", sub.FormID).Logger()

	token := sub.SessionToken()
	if token == "" {
		log.Info().Msg("form submission without session token ignored")
		return OutcomeUnmatched, nil
	}
	userID, ok := s.sessions.UserForToken(token)
	if !ok {
		log.Info().Msg("form submission with unknown session token ignored")
		return OutcomeUnmatched, nil
	}
	return s.complete(ctx, sub, userID, token)
}

// CheckStatus polls the user's upload form. When nothing has completed yet
// a single deferred re-check is scheduled for the draft.
func (s *Service) CheckStatus(ctx context.Context, userID string) (Outcome, *submission.Draft, error) {
	outcome, d, err := s.poll(ctx, userID)
	if err != nil {
		return outcome, d, err
	}
	if outcome == OutcomePending || outcome == OutcomeNoFiles {
		s.scheduleRecheck(userID)
	}
	return outcome, d, nil
}

func (s *Service) poll(ctx context.Context, userID string) (Outcome, *submission.Draft, error) {
	d, ok := s.sessions.Get(userID)
	if !ok {
		return "", nil, submission.ErrSessionExpired
	}
	if d.Status != submission.StatusAwaitingExternalForm && d.Status != submission.StatusAwaitingDocument {
		return "", d, fmt.Errorf("%w: nothing to check while %s", submission.ErrInvalidTransition, d.Status)
	}
	if err := d.RequireAntecedents(d.Status); err != nil {
		return "", d, err
	}

	subs, err := s.forms.PollSubmissions(ctx, d.FormID)
	if err != nil {
		return "", d, fmt.Errorf("failed to poll form %s: %w", d.FormID, err)
	}

	outcome := OutcomePending
	for _, sub := range subs {
		if sub.SessionToken() != d.SessionToken {
			continue
		}
		o, err := s.complete(ctx, sub, userID, d.SessionToken)
		if err != nil {
			return o, d, err
		}
		switch o {
		case OutcomeCompleted, OutcomeAlreadyProcessed, OutcomeAlreadyProcessing:
			return o, d, nil
		case OutcomeNoFiles:
			outcome = OutcomeNoFiles
		}
	}
	if cur, ok := s.sessions.Get(userID); ok {
		d = cur
	}
	return outcome, d, nil
}

// complete runs download, upload, persist and notify at most once per
// submission id.
func (s *Service) complete(ctx context.Context, sub submission.FormSubmission, userID, token string) (Outcome, error) {
	log := s.logger.With().
		Str("submission_id", sub.ID).
		Str("user_id", userID).
		Logger()

	d, ok := s.sessions.Get(userID)
	if !ok || d.SessionToken != token {
		log.Info().Msg("no draft owns this token")
		return OutcomeUnmatched, nil
	}
	if len(d.UploadedFiles) > 0 || s.tracker.IsProcessed(sub.ID) || s.tracker.IsFinished(token) {
		return OutcomeAlreadyProcessed, nil
	}
	if !s.tracker.TryClaim(sub.ID, token) {
		if s.tracker.IsProcessed(sub.ID) || s.tracker.IsFinished(token) {
			return OutcomeAlreadyProcessed, nil
		}
		log.Info().Msg("draft already being processed")
		return OutcomeAlreadyProcessing, nil
	}
	// The draft may have been cancelled between the snapshot and the claim.
	if cur, ok := s.sessions.Get(userID); !ok || cur.SessionToken != token {
		s.tracker.Release(sub.ID)
		log.Info().Msg("draft gone before claim")
		return OutcomeUnmatched, nil
	}

	remote, err := s.forms.FetchSubmissionFiles(ctx, sub.ID)
	if err != nil {
		s.tracker.Release(sub.ID)
		return "", fmt.Errorf("failed to fetch submission files: %w", err)
	}
	if len(remote) == 0 {
		return s.noFiles(userID, sub.ID, log), nil
	}

	uploaded, err := s.transfer.Transfer(ctx, transfer.Target{
		UserID:      userID,
		DisplayName: d.DisplayName,
		Project:     d.Project.Name,
		Unit:        d.Project.Unit,
		Token:       token,
	}, remote)
	if err != nil {
		s.tracker.Release(sub.ID)
		return "", fmt.Errorf("failed to transfer documents: %w", err)
	}
	if len(uploaded) == 0 {
		return s.noFiles(userID, sub.ID, log), nil
	}

	rec := submission.NewRecord(d, sub.ID, uploaded, s.opts.Now())
	index, err := s.records.Append(ctx, *rec)
	if err != nil {
		s.tracker.Release(sub.ID)
		log.Error().Err(err).Int("files", len(uploaded)).Msg("record not persisted, claim released")
		return "", fmt.Errorf("failed to persist record: %w", err)
	}

	if _, err := s.update(userID, func(cur *submission.Draft) error {
		cur.UploadedFiles = uploaded
		return cur.TransitionTo(submission.StatusCompleted)
	}); err != nil {
		log.Warn().Err(err).Msg("draft changed before completion could be recorded")
	}
	s.tracker.Complete(sub.ID)
	s.sessions.RetireToken(token)

	if s.tracker.MarkNotified(sub.ID, userID) {
		s.notifyCompleted(ctx, rec, index, log)
	}

	s.stopRecheck(userID)
	s.sessions.Delete(userID)

	log.Info().Int("record_index", index).Int("files", len(uploaded)).Msg("submission completed")
	return OutcomeCompleted, nil
}

func (s *Service) noFiles(userID, submissionID string, log zerolog.Logger) Outcome {
	s.tracker.Release(submissionID)
	if _, err := s.update(userID, func(d *submission.Draft) error {
		return d.TransitionTo(submission.StatusAwaitingDocument)
	}); err != nil {
		log.Warn().Err(err).Msg("could not mark draft awaiting documents")
	}
	log.Info().Msg("submission has no files yet, claim released")
	return OutcomeNoFiles
}

func (s *Service) notifyCompleted(ctx context.Context, rec *submission.Record, index int, log zerolog.Logger) {
	pct, err := s.records.FastCommission(ctx, rec.Project.Name)
	if err != nil {
		log.Warn().Err(err).Msg("fast commission lookup failed, using default")
		pct = decimal.NewFromInt(commission.DefaultFastPercent)
	}
	fast := commission.FastCommission(commission.ParseAmount(rec.TotalCommission), pct)

	err = s.notifier.Dispatch(ctx, notification.Event{
		Kind:           notification.KindSubmissionCompleted,
		UserID:         rec.SubmittedBy,
		SubmissionID:   rec.SubmissionID,
		Record:         rec,
		RecordIndex:    index,
		FastPercent:    pct.String(),
		FastCommission: fast.StringFixed(2),
		Outcome:        string(OutcomeCompleted),
	})
	if err != nil && !errors.Is(err, notification.ErrDuplicate) {
		log.Warn().Err(err).Msg("completion notification failed")
	}
}
