package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// Service turns workflow events into notifications on every registered
// publisher. Each (kind, submission, user) is dispatched at most once.
type Service struct {
	publishers []notification.Publisher
	condition  *Condition
	retryDelay time.Duration
	logger     zerolog.Logger

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewService creates a dispatch service. condition may be nil.
func NewService(condition *Condition, retryDelay time.Duration, logger zerolog.Logger, publishers ...notification.Publisher) *Service {
	return &Service{
		publishers: publishers,
		condition:  condition,
		retryDelay: retryDelay,
		logger:     logger.With().Str("service", "notification").Logger(),
		sent:       make(map[string]struct{}),
	}
}

// AddPublisher registers another delivery channel.
func (s *Service) AddPublisher(p notification.Publisher) {
	s.publishers = append(s.publishers, p)
}

// Dispatch publishes event on every channel. A repeated event returns
// notification.ErrDuplicate without publishing.
func (s *Service) Dispatch(ctx context.Context, event notification.Event) error {
	key := notification.DedupeKey(event.Kind, event.SubmissionID, event.UserID)
	if !s.claim(key) {
		s.logger.Debug().Str("dedupe_key", key).Msg("duplicate notification suppressed")
		return notification.ErrDuplicate
	}

	event.Announce = s.shouldAnnounce(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var errs []error
	for _, p := range s.publishers {
		n := notification.NewNotification(event.Kind, p.Channel(), key, payload)
		n.SetTarget(event.UserID)
		if err := s.deliver(ctx, p, n, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Channel(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) deliver(ctx context.Context, p notification.Publisher, n *notification.Notification, event notification.Event) error {
	for {
		err := p.Publish(ctx, n, event)
		if err == nil {
			_ = n.MarkSent()
			_ = n.MarkDelivered()
			s.logger.Info().
				Str("notification_id", n.NotificationID.String()).
				Str("channel", string(n.Channel)).
				Str("kind", string(n.Kind)).
				Int("retries", n.RetryCount).
				Msg("notification delivered")
			return nil
		}
		_ = n.MarkFailed(err.Error())
		s.logger.Warn().
			Err(err).
			Str("notification_id", n.NotificationID.String()).
			Str("channel", string(n.Channel)).
			Int("retry_count", n.RetryCount).
			Msg("notification delivery failed")
		if resetErr := n.ResetForRetry(); resetErr != nil {
			return err
		}
		if s.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}
}

func (s *Service) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sent[key]; ok {
		return false
	}
	s.sent[key] = struct{}{}
	return true
}

func (s *Service) shouldAnnounce(event notification.Event) bool {
	if event.Kind != notification.KindSubmissionCompleted || event.Record == nil {
		return false
	}
	ok, err := s.condition.Evaluate(AnnounceParams(event.Record))
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("condition", s.condition.String()).
			Msg("announce condition failed, announcing anyway")
		return true
	}
	return ok
}

// AnnounceParams exposes a record to the announce condition.
func AnnounceParams(rec *submission.Record) map[string]interface{} {
	total, _ := commission.ParseAmount(rec.TotalCommission).Float64()
	net, _ := commission.ParseAmount(rec.Project.NetPrice).Float64()
	return map[string]interface{}{
		"project":          rec.Project.Name,
		"unit":             rec.Project.Unit,
		"total_commission": total,
		"net_price":        net,
		"participants":     float64(len(rec.Participants)),
		"submitter":        rec.SubmitterName,
	}
}
