package workflow

import (
	"context"

	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// scheduleRecheck arranges one background poll for the user's draft. A
// draft gets at most one, however often the user checks manually.
func (s *Service) scheduleRecheck(userID string) {
	first := false
	_, err := s.update(userID, func(d *submission.Draft) error {
		if !d.RecheckScheduled {
			d.RecheckScheduled = true
			first = true
		}
		return nil
	})
	if err != nil || !first || s.opts.RecheckDelay <= 0 {
		return
	}

	stop := s.opts.AfterFunc(s.opts.RecheckDelay, func() { s.recheck(userID) })
	s.timerMu.Lock()
	s.timers[userID] = stop
	s.timerMu.Unlock()

	s.logger.Debug().Str("user_id", userID).Dur("delay", s.opts.RecheckDelay).Msg("re-check scheduled")
}

func (s *Service) recheck(userID string) {
	s.timerMu.Lock()
	delete(s.timers, userID)
	s.timerMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.RecheckTimeout)
	defer cancel()

	outcome, d, err := s.poll(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("scheduled re-check failed")
		return
	}
	if outcome == OutcomeCompleted {
		return
	}

	event := notification.Event{
		Kind:    notification.KindRecheckFinished,
		UserID:  userID,
		Outcome: string(outcome),
	}
	if d != nil {
		event.SubmissionID = d.DraftID.String()
	}
	if err := s.notifier.Dispatch(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("re-check notification failed")
	}
}

func (s *Service) stopRecheck(userID string) {
	s.timerMu.Lock()
	stop, ok := s.timers[userID]
	delete(s.timers, userID)
	s.timerMu.Unlock()
	if ok {
		stop()
	}
}
