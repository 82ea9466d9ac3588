package submission

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/domain/commission"
)

// Status represents the workflow stage of a draft
type Status string

const (
	StatusCollecting           Status = "collecting"
	StatusAwaitingCustomer     Status = "awaiting_customer"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusAwaitingExternalForm Status = "awaiting_external_form"
	StatusAwaitingDocument     Status = "awaiting_document"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
)

// Section names a group of fields the user can go back and edit
type Section string

const (
	SectionProject      Section = "project"
	SectionParticipants Section = "participants"
	SectionCustomer     Section = "customer"
)

// MaxParticipants is the number of consultant slots on a draft.
const MaxParticipants = 4

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidShares     = errors.New("participant shares must total 100%")
	ErrMissingField      = errors.New("required field missing")
	ErrInvalidDate       = errors.New("date must be YYYY-MM-DD")
	ErrSlotOutOfRange    = errors.New("participant slot out of range")
	ErrNoParticipants    = errors.New("at least one participant is required")
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var transitions = map[Status][]Status{
	StatusCollecting:           {StatusCollecting, StatusAwaitingCustomer, StatusCancelled},
	StatusAwaitingCustomer:     {StatusAwaitingCustomer, StatusAwaitingConfirmation, StatusCollecting, StatusCancelled},
	StatusAwaitingConfirmation: {StatusCollecting, StatusAwaitingCustomer, StatusConfirmed, StatusCancelled},
	StatusConfirmed:            {StatusConfirmed, StatusAwaitingExternalForm, StatusCancelled},
	StatusAwaitingExternalForm: {StatusAwaitingDocument, StatusCompleted, StatusCancelled},
	StatusAwaitingDocument:     {StatusAwaitingDocument, StatusCompleted, StatusCancelled},
	StatusCompleted:            {},
	StatusCancelled:            {},
}

// ProjectInfo holds the project fields of a draft
type ProjectInfo struct {
	Name           string `json:"name"`
	Unit           string `json:"unit"`
	ListedPrice    string `json:"listedPrice"`
	NetPrice       string `json:"netPrice"`
	CommissionRate string `json:"commissionRate"`
}

// Validate checks the fields the commission math depends on
func (p ProjectInfo) Validate() error {
	fields := []struct{ name, val string }{
		{"project name", p.Name},
		{"unit", p.Unit},
		{"net price", p.NetPrice},
		{"commission rate", p.CommissionRate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.val) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

// CustomerInfo holds the customer fields of a draft
type CustomerInfo struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	ContractDate     string `json:"contractDate"`
	LoanApprovalDate string `json:"loanApprovalDate"`
}

// Validate checks required customer fields and date shapes. Dates are not
// checked for calendar correctness.
func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer name", ErrMissingField)
	}
	if strings.TrimSpace(c.ContractDate) == "" {
		return fmt.Errorf("%w: contract date", ErrMissingField)
	}
	if !datePattern.MatchString(strings.TrimSpace(c.ContractDate)) {
		return fmt.Errorf("%w: contract date %q", ErrInvalidDate, c.ContractDate)
	}
	if d := strings.TrimSpace(c.LoanApprovalDate); d != "" && !datePattern.MatchString(d) {
		return fmt.Errorf("%w: loan approval date %q", ErrInvalidDate, c.LoanApprovalDate)
	}
	return nil
}

// IsEmpty reports whether no customer data has been entered yet
func (c CustomerInfo) IsEmpty() bool {
	return c == CustomerInfo{}
}

// Participant is one consultant slot
type Participant struct {
	Name   string          `json:"name"`
	Code   string          `json:"code"`
	Share  decimal.Decimal `json:"share"`
	Payout string          `json:"payout,omitempty"`
}

// IsEmpty reports whether the slot is unfilled
func (p Participant) IsEmpty() bool {
	return strings.TrimSpace(p.Name) == ""
}

// UploadedFile records one document moved into storage
type UploadedFile struct {
	OriginalName string `json:"originalName"`
	StorageID    string `json:"storageId"`
	Link         string `json:"link"`
}

// Draft is the mutable per-user submission state
type Draft struct {
	DraftID          uuid.UUID                    `json:"draftId"`
	UserID           string                       `json:"userId"`
	DisplayName      string                       `json:"displayName"`
	Project          ProjectInfo                  `json:"project"`
	Participants     [MaxParticipants]Participant `json:"participants"`
	Customer         CustomerInfo                 `json:"customer"`
	TotalCommission  string                       `json:"totalCommission,omitempty"`
	Status           Status                       `json:"status"`
	SessionToken     string                       `json:"sessionToken,omitempty"`
	FormID           string                       `json:"formId,omitempty"`
	FormURL          string                       `json:"formUrl,omitempty"`
	UploadedFiles    []UploadedFile               `json:"uploadedFiles,omitempty"`
	RecheckScheduled bool                         `json:"recheckScheduled"`
	CreatedAt        time.Time                    `json:"createdAt"`
	UpdatedAt        time.Time                    `json:"updatedAt"`
}

// NewDraft creates a draft in the collecting stage
func NewDraft(userID, displayName string) *Draft {
	now := time.Now().UTC()
	return &Draft{
		DraftID:     uuid.New(),
		UserID:      userID,
		DisplayName: displayName,
		Status:      StatusCollecting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanTransitionTo checks if a transition to the target status is valid
func (d *Draft) CanTransitionTo(target Status) bool {
	allowed, ok := transitions[d.Status]
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

// TransitionTo moves the draft to target or returns ErrInvalidTransition
func (d *Draft) TransitionTo(target Status) error {
	if !d.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, target)
	}
	d.Status = target
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal returns true once the draft is completed or cancelled
func (d *Draft) IsTerminal() bool {
	return d.Status == StatusCompleted || d.Status == StatusCancelled
}

// SetParticipant overwrites the slot at position. A blank name clears it.
func (d *Draft) SetParticipant(slot int, p Participant) error {
	if slot < 0 || slot >= MaxParticipants {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	p.Payout = ""
	if p.IsEmpty() {
		p = Participant{}
	}
	d.Participants[slot] = p
	d.TotalCommission = ""
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// FilledParticipants returns the non-empty slots in order
func (d *Draft) FilledParticipants() []Participant {
	out := make([]Participant, 0, MaxParticipants)
	for _, p := range d.Participants {
		if !p.IsEmpty() {
			out = append(out, p)
		}
	}
	return out
}

// Shares converts the slots for the commission calculator
func (d *Draft) Shares() []commission.Share {
	shares := make([]commission.Share, 0, MaxParticipants)
	for _, p := range d.Participants {
		shares = append(shares, commission.Share{Name: p.Name, Code: p.Code, Percent: p.Share})
	}
	return shares
}

// SharesValid runs the percentage validator over the slots
func (d *Draft) SharesValid() bool {
	return commission.ValidShares(d.Shares())
}

// Recalculate refreshes the derived payout fields
func (d *Draft) Recalculate() commission.Breakdown {
	b := commission.Calculate(d.Project.NetPrice, d.Project.CommissionRate, d.Shares())
	i := 0
	for slot := range d.Participants {
		if d.Participants[slot].IsEmpty() {
			d.Participants[slot].Payout = ""
			continue
		}
		d.Participants[slot].Payout = b.Payouts[i].AmountString()
		i++
	}
	d.TotalCommission = b.TotalString()
	return b
}

// RequireAntecedents checks that every field group the given stage relies
// on is present. A draft that fails this cannot be continued.
func (d *Draft) RequireAntecedents(stage Status) error {
	needProject := false
	needParticipants := false
	needCustomer := false
	switch stage {
	case StatusAwaitingCustomer:
		needProject, needParticipants = true, true
	case StatusAwaitingConfirmation, StatusConfirmed:
		needProject, needParticipants, needCustomer = true, true, true
	case StatusAwaitingExternalForm, StatusAwaitingDocument:
		needProject, needParticipants, needCustomer = true, true, true
		if d.SessionToken == "" || d.FormID == "" {
			return fmt.Errorf("%w: no upload form bound", ErrSessionExpired)
		}
	}
	if needProject && d.Project.Validate() != nil {
		return fmt.Errorf("%w: project details missing", ErrSessionExpired)
	}
	if needParticipants && len(d.FilledParticipants()) == 0 {
		return fmt.Errorf("%w: participants missing", ErrSessionExpired)
	}
	if needCustomer && d.Customer.Validate() != nil {
		return fmt.Errorf("%w: customer details missing", ErrSessionExpired)
	}
	return nil
}

// Clone returns a deep copy safe to hand out of the session store
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := *d
	if d.UploadedFiles != nil {
		c.UploadedFiles = append([]UploadedFile(nil), d.UploadedFiles...)
	}
	return &c
}

// StageFor maps an editable section to the stage that collects it
func StageFor(section Section) (Status, bool) {
	switch section {
	case SectionProject, SectionParticipants:
		return StatusCollecting, true
	case SectionCustomer:
		return StatusAwaitingCustomer, true
	}
	return "", false
}
