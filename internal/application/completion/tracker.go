package completion

import "sync"

// Tracker gives at-most-once processing per external form submission and
// per draft. A submission id is either free, claimed (being processed) or
// processed. The draft is identified by its session token: while one of its
// submissions is claimed no other may be, and once one completes the draft
// is done.
type Tracker struct {
	mu        sync.Mutex
	claims    map[string]string // submission id -> token
	processed map[string]struct{}
	drafts    map[string]struct{}
	finished  map[string]struct{}
	notified  map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		claims:    make(map[string]string),
		processed: make(map[string]struct{}),
		drafts:    make(map[string]struct{}),
		finished:  make(map[string]struct{}),
		notified:  make(map[string]struct{}),
	}
}

// TryClaim grants the exclusive right to process submissionID for the draft
// owning token. Both checks and both inserts happen under one lock hold. An
// empty token claims the submission alone.
func (t *Tracker) TryClaim(submissionID, token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.processed[submissionID]; ok {
		return false
	}
	if _, ok := t.claims[submissionID]; ok {
		return false
	}
	if token != "" {
		if _, ok := t.finished[token]; ok {
			return false
		}
		if _, ok := t.drafts[token]; ok {
			return false
		}
		t.drafts[token] = struct{}{}
	}
	t.claims[submissionID] = token
	return true
}

// Release gives up a claim after a failed attempt so a later trigger can
// reclaim the submission and its draft.
func (t *Tracker) Release(submissionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	token, ok := t.claims[submissionID]
	if !ok {
		return
	}
	delete(t.claims, submissionID)
	delete(t.drafts, token)
}

// Complete moves a claimed id to processed and marks its draft finished.
// Neither becomes claimable again.
func (t *Tracker) Complete(submissionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token, ok := t.claims[submissionID]; ok {
		delete(t.claims, submissionID)
		if token != "" {
			delete(t.drafts, token)
			t.finished[token] = struct{}{}
		}
	}
	t.processed[submissionID] = struct{}{}
}

// IsProcessed reports whether submissionID finished successfully.
func (t *Tracker) IsProcessed(submissionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.processed[submissionID]
	return ok
}

// IsProcessing reports whether submissionID is currently claimed.
func (t *Tracker) IsProcessing(submissionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.claims[submissionID]
	return ok
}

// IsFinished reports whether the draft owning token already completed.
func (t *Tracker) IsFinished(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.finished[token]
	return ok
}

// MarkNotified returns true the first time it sees (submissionID, userID).
func (t *Tracker) MarkNotified(submissionID, userID string) bool {
	key := submissionID + "\x00" + userID
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.notified[key]; ok {
		return false
	}
	t.notified[key] = struct{}{}
	return true
}
