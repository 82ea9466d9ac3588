package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_publisher.go -package=mocks . Publisher,SSEHub

import (
	"context"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// Event is the structured outcome handed to the presentation layer. It
// carries data only; publishers decide how to word it.
type Event struct {
	Kind           Kind               `json:"kind"`
	UserID         string             `json:"userId"`
	SubmissionID   string             `json:"submissionId,omitempty"`
	Record         *submission.Record `json:"record,omitempty"`
	RecordIndex    int                `json:"recordIndex"`
	FastPercent    string             `json:"fastPercent,omitempty"`
	FastCommission string             `json:"fastCommission,omitempty"`
	Outcome        string             `json:"outcome,omitempty"`
	// Announce is false when the announce condition filtered the event out
	// of shared channels; the submitter is still told.
	Announce bool `json:"announce"`
}

// Publisher delivers notifications over one channel
type Publisher interface {
	Channel() Channel
	Publish(ctx context.Context, n *Notification, event Event) error
}

// SSEHub defines the interface for managing SSE connections
type SSEHub interface {
	Register(client *SSEClient)
	Unregister(clientID string)
	GetClientCount() int
	BroadcastToAll(message *SSEMessage)
	BroadcastToUser(userID string, message *SSEMessage)
	SendToClient(clientID string, message *SSEMessage) error
	Stop()
}
