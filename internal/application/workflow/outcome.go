package workflow

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// Outcome is the result of one completion attempt. None of these are
// failures from the caller's point of view.
type Outcome string

const (
	OutcomeCompleted         Outcome = "completed"
	OutcomePending           Outcome = "pending"
	OutcomeNoFiles           Outcome = "no_files"
	OutcomeAlreadyProcessing Outcome = "already_processing"
	OutcomeAlreadyProcessed  Outcome = "already_processed"
	OutcomeUnmatched         Outcome = "unmatched"
)

// ErrFormCreationFailed is returned once every upload form attempt failed.
// The draft stays confirmed and can be confirmed again.
var ErrFormCreationFailed = errors.New("upload form could not be created")

// ShareError reports participant shares that do not total 100%.
type ShareError struct {
	Sum decimal.Decimal
}

func (e *ShareError) Error() string {
	return fmt.Sprintf("participant shares total %s%%, expected 100%%", e.Sum.String())
}

func (e *ShareError) Unwrap() error {
	return submission.ErrInvalidShares
}
