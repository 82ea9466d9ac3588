package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the delivery status of a notification
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
)

// Channel represents the notification delivery channel
type Channel string

const (
	ChannelDiscord  Channel = "DISCORD"
	ChannelAnnounce Channel = "ANNOUNCE"
	ChannelSSE      Channel = "SSE"
)

// Kind identifies what happened
type Kind string

const (
	KindSubmissionCompleted Kind = "submission.completed"
	KindRecheckFinished     Kind = "submission.recheck_finished"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicate         = errors.New("notification already dispatched")
	ErrClientNotFound    = errors.New("SSE client not found")
	ErrChannelFull       = errors.New("SSE message channel full")
	ErrCannotRetry       = errors.New("cannot retry notification")
)

// Notification is one delivery of an event over one channel
type Notification struct {
	NotificationID uuid.UUID       `json:"notificationId"`
	DedupeKey      string          `json:"dedupeKey"`
	Kind           Kind            `json:"kind"`
	Channel        Channel         `json:"channel"`
	Payload        json.RawMessage `json:"payload"`
	Status         Status          `json:"status"`
	TargetUserID   *string         `json:"targetUserId,omitempty"`
	RetryCount     int             `json:"retryCount"`
	MaxRetries     int             `json:"maxRetries"`
	LastError      *string         `json:"lastError,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	SentAt         *time.Time      `json:"sentAt,omitempty"`
	DeliveredAt    *time.Time      `json:"deliveredAt,omitempty"`
	FailedAt       *time.Time      `json:"failedAt,omitempty"`
}

// NewNotification creates a new notification
func NewNotification(kind Kind, channel Channel, dedupeKey string, payload json.RawMessage) *Notification {
	return &Notification{
		NotificationID: uuid.New(),
		DedupeKey:      dedupeKey,
		Kind:           kind,
		Channel:        channel,
		Payload:        payload,
		Status:         StatusPending,
		MaxRetries:     3,
		CreatedAt:      time.Now().UTC(),
	}
}

// DedupeKey builds the key that makes an event notify at most once per
// submission and user.
func DedupeKey(kind Kind, submissionID, userID string) string {
	return string(kind) + ":" + submissionID + ":" + userID
}

// SetTarget sets the user the notification is addressed to
func (n *Notification) SetTarget(userID string) {
	n.TargetUserID = &userID
}

// CanTransitionTo checks if a transition to the target status is valid
func (n *Notification) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusSent, StatusFailed},
		StatusSent:      {StatusDelivered, StatusFailed},
		StatusDelivered: {},
		StatusFailed:    {StatusPending}, // Retry
	}

	allowed, ok := transitions[n.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// MarkSent marks the notification as sent
func (n *Notification) MarkSent() error {
	if !n.CanTransitionTo(StatusSent) {
		return ErrInvalidTransition
	}
	n.Status = StatusSent
	now := time.Now().UTC()
	n.SentAt = &now
	return nil
}

// MarkDelivered marks the notification as delivered
func (n *Notification) MarkDelivered() error {
	if !n.CanTransitionTo(StatusDelivered) {
		return ErrInvalidTransition
	}
	n.Status = StatusDelivered
	now := time.Now().UTC()
	n.DeliveredAt = &now
	return nil
}

// MarkFailed marks the notification as failed
func (n *Notification) MarkFailed(errMsg string) error {
	if !n.CanTransitionTo(StatusFailed) {
		return ErrInvalidTransition
	}
	n.Status = StatusFailed
	now := time.Now().UTC()
	n.FailedAt = &now
	n.LastError = &errMsg
	n.RetryCount++
	return nil
}

// CanRetry checks if the notification can be retried
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount < n.MaxRetries
}

// ResetForRetry resets the notification for retry
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrCannotRetry
	}
	n.Status = StatusPending
	n.FailedAt = nil
	return nil
}

// IsTerminal returns true if the notification is in a terminal state
func (n *Notification) IsTerminal() bool {
	return n.Status == StatusDelivered ||
		(n.Status == StatusFailed && !n.CanRetry())
}

// SSEClient represents an active SSE connection
type SSEClient struct {
	ClientID    string
	UserID      *string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client
func NewSSEClient(clientID string, userID *string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
