package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/execution-hub/commission-bot/internal/domain/commission"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/retry"
)

var (
	ErrSaveExhausted   = errors.New("backup save retries exhausted")
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrInvalidRange    = errors.New("invalid index range")
	ErrInvalidPercent  = errors.New("fast commission percentage must be between 0 and 100")
)

// Options configures document paths and the conflict retry policy.
type Options struct {
	RecordsPath  string
	SettingsPath string
	Attempts     int
	Delay        time.Duration
}

// DefaultOptions returns the production write policy: 3 attempts, 1s apart.
func DefaultOptions() Options {
	return Options{
		RecordsPath:  "data/records.json",
		SettingsPath: "data/fast_commission.json",
		Attempts:     3,
		Delay:        time.Second,
	}
}

// Service persists completed submission records and fast-commission
// settings in a versioned document store. Every write reads the current
// document, modifies it and writes it back conditioned on the version it
// read.
type Service struct {
	store  submission.DocumentStore
	opts   Options
	logger zerolog.Logger
}

// NewService creates a records service.
func NewService(store submission.DocumentStore, opts Options, logger zerolog.Logger) *Service {
	def := DefaultOptions()
	if opts.RecordsPath == "" {
		opts.RecordsPath = def.RecordsPath
	}
	if opts.SettingsPath == "" {
		opts.SettingsPath = def.SettingsPath
	}
	if opts.Attempts < 1 {
		opts.Attempts = def.Attempts
	}
	return &Service{
		store:  store,
		opts:   opts,
		logger: logger.With().Str("service", "records").Logger(),
	}
}

// Load returns every stored record. A missing document is an empty list.
func (s *Service) Load(ctx context.Context) ([]submission.Record, error) {
	list, _, err := s.loadRecords(ctx)
	return list, err
}

// Get returns the record at a 0-based index.
func (s *Service) Get(ctx context.Context, index int) (*submission.Record, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index+1, len(list))
	}
	rec := list[index]
	return &rec, nil
}

// Append adds rec at the end and returns its 0-based index.
func (s *Service) Append(ctx context.Context, rec submission.Record) (int, error) {
	var index int
	err := s.mutateRecords(ctx, "append", func(list []submission.Record) ([]submission.Record, error) {
		index = len(list)
		return append(list, rec), nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("submission_id", rec.SubmissionID).
		Int("index", index).
		Msg("record appended")
	return index, nil
}

// Delete removes the record at a 0-based index.
func (s *Service) Delete(ctx context.Context, index int) (*submission.Record, error) {
	var removed submission.Record
	err := s.mutateRecords(ctx, "delete", func(list []submission.Record) ([]submission.Record, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index+1, len(list))
		}
		removed = list[index]
		return append(list[:index], list[index+1:]...), nil
	})
	if err != nil {
		return nil, err
	}
	return &removed, nil
}

// BulkDelete removes every listed 0-based index against one snapshot.
// Indices are removed in descending order so earlier removals never shift
// later ones. Duplicates collapse; any out-of-range index fails the whole
// operation.
func (s *Service) BulkDelete(ctx context.Context, indices []int) (int, error) {
	uniq := dedupeDescending(indices)
	if len(uniq) == 0 {
		return 0, nil
	}
	err := s.mutateRecords(ctx, "bulk_delete", func(list []submission.Record) ([]submission.Record, error) {
		for _, i := range uniq {
			if i < 0 || i >= len(list) {
				return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i+1, len(list))
			}
		}
		for _, i := range uniq {
			list = append(list[:i], list[i+1:]...)
		}
		return list, nil
	})
	if err != nil {
		return 0, err
	}
	return len(uniq), nil
}

// FastCommission returns the configured percentage for project, or the
// default when none is set.
func (s *Service) FastCommission(ctx context.Context, project string) (decimal.Decimal, error) {
	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if pct, ok := settings[settingsKey(project)]; ok {
		return pct, nil
	}
	return decimal.NewFromInt(commission.DefaultFastPercent), nil
}

// SetFastCommission stores the percentage for project.
func (s *Service) SetFastCommission(ctx context.Context, project string, percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPercent
	}
	key := settingsKey(project)
	return s.writeWithRetry(ctx, "set_fast_commission", func(ctx context.Context) error {
		settings, version, err := s.loadSettings(ctx)
		if err != nil {
			return err
		}
		settings[key] = percent
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		return s.store.PutFile(ctx, s.opts.SettingsPath, data, version)
	})
}

// ParseIndexRange turns 1-based user input such as "1-3,5" into 0-based
// indices.
func ParseIndexRange(input string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || start < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
			}
		}
		for n := start; n <= end; n++ {
			out = append(out, n-1)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidRange)
	}
	return out, nil
}

func (s *Service) mutateRecords(ctx context.Context, op string, fn func([]submission.Record) ([]submission.Record, error)) error {
	return s.writeWithRetry(ctx, op, func(ctx context.Context) error {
		list, version, err := s.loadRecords(ctx)
		if err != nil {
			return err
		}
		next, err := fn(list)
		if err != nil {
			return err
		}
		if next == nil {
			next = []submission.Record{}
		}
		data, err := json.MarshalIndent(next, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal records: %w", err)
		}
		return s.store.PutFile(ctx, s.opts.RecordsPath, data, version)
	})
}

func (s *Service) writeWithRetry(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	policy := retry.Policy{
		Attempts:  s.opts.Attempts,
		Delays:    retry.Fixed(s.opts.Delay, max(s.opts.Attempts-1, 1)),
		Retryable: func(err error) bool { return errors.Is(err, submission.ErrVersionConflict) },
		OnRetry: func(n int, err error, wait time.Duration) {
			s.logger.Warn().
				Err(err).
				Str("op", op).
				Int("attempt", n).
				Dur("wait", wait).
				Msg("backup write conflicted, retrying")
		},
	}
	err := retry.Do(ctx, policy, attempt)
	if errors.Is(err, submission.ErrVersionConflict) {
		s.logger.Error().Str("op", op).Int("attempts", s.opts.Attempts).Msg("backup write gave up")
		return fmt.Errorf("%w: %w", ErrSaveExhausted, err)
	}
	return err
}

func (s *Service) loadRecords(ctx context.Context) ([]submission.Record, string, error) {
	doc, err := s.store.GetFile(ctx, s.opts.RecordsPath)
	if errors.Is(err, submission.ErrDocumentNotFound) {
		return []submission.Record{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read records: %w", err)
	}
	var list []submission.Record
	if len(strings.TrimSpace(string(doc.Content))) > 0 {
		if err := json.Unmarshal(doc.Content, &list); err != nil {
			return nil, "", fmt.Errorf("failed to decode records: %w", err)
		}
	}
	if list == nil {
		list = []submission.Record{}
	}
	return list, doc.Version, nil
}

func (s *Service) loadSettings(ctx context.Context) (map[string]decimal.Decimal, string, error) {
	doc, err := s.store.GetFile(ctx, s.opts.SettingsPath)
	if errors.Is(err, submission.ErrDocumentNotFound) {
		return map[string]decimal.Decimal{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read settings: %w", err)
	}
	settings := map[string]decimal.Decimal{}
	if len(strings.TrimSpace(string(doc.Content))) > 0 {
		if err := json.Unmarshal(doc.Content, &settings); err != nil {
			return nil, "", fmt.Errorf("failed to decode settings: %w", err)
		}
	}
	return settings, doc.Version, nil
}

func settingsKey(project string) string {
	return strings.ToLower(strings.TrimSpace(project))
}

func dedupeDescending(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
