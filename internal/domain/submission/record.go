package submission

import "time"

// Record is the persisted snapshot of a completed draft. Records are
// addressed by their position in the stored list.
type Record struct {
	SubmittedBy     string         `json:"submittedBy"`
	SubmitterName   string         `json:"submitterName"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	SubmissionID    string         `json:"submissionId"`
	SessionToken    string         `json:"sessionToken"`
	Project         ProjectInfo    `json:"project"`
	Customer        CustomerInfo   `json:"customer"`
	Participants    []Participant  `json:"participants"`
	TotalCommission string         `json:"totalCommission"`
	Files           []UploadedFile `json:"files"`
}

// NewRecord snapshots a draft together with the files that completed it
func NewRecord(d *Draft, submissionID string, files []UploadedFile, submittedAt time.Time) *Record {
	snap := d.Clone()
	snap.Recalculate()
	return &Record{
		SubmittedBy:     snap.UserID,
		SubmitterName:   snap.DisplayName,
		SubmittedAt:     submittedAt.UTC(),
		SubmissionID:    submissionID,
		SessionToken:    snap.SessionToken,
		Project:         snap.Project,
		Customer:        snap.Customer,
		Participants:    snap.FilledParticipants(),
		TotalCommission: snap.TotalCommission,
		Files:           append([]UploadedFile(nil), files...),
	}
}
