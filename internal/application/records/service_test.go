package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/domain/submission/mocks"
)

const recordsPath = "data/records.json"

func testOptions() Options {
	return Options{RecordsPath: recordsPath, SettingsPath: "data/fast.json", Attempts: 3, Delay: 0}
}

func recordsDoc(t *testing.T, version string, ids ...string) *submission.Document {
	t.Helper()
	list := make([]submission.Record, 0, len(ids))
	for _, id := range ids {
		list = append(list, submission.Record{SubmissionID: id})
	}
	data, err := json.Marshal(list)
	require.NoError(t, err)
	return &submission.Document{Content: data, Version: version}
}

func decodeIDs(t *testing.T, content []byte) []string {
	t.Helper()
	var list []submission.Record
	require.NoError(t, json.Unmarshal(content, &list))
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.SubmissionID)
	}
	return ids
}

func TestService_LoadMissingDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(nil, submission.ErrDocumentNotFound)

	svc := NewService(store, testOptions(), zerolog.Nop())
	list, err := svc.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_AppendCreatesDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(nil, submission.ErrDocumentNotFound)
	store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "").
		DoAndReturn(func(_ context.Context, _ string, content []byte, _ string) error {
			assert.Equal(t, []string{"s1"}, decodeIDs(t, content))
			return nil
		})

	svc := NewService(store, testOptions(), zerolog.Nop())
	index, err := svc.Append(context.Background(), submission.Record{SubmissionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

func TestService_AppendRetriesOnConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)

	// another writer lands between our read and write
	gomock.InOrder(
		store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1", "a"), nil),
		store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "v1").Return(submission.ErrVersionConflict),
		store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v2", "a", "b"), nil),
		store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "v2").
			DoAndReturn(func(_ context.Context, _ string, content []byte, _ string) error {
				assert.Equal(t, []string{"a", "b", "c"}, decodeIDs(t, content))
				return nil
			}),
	)

	svc := NewService(store, testOptions(), zerolog.Nop())
	index, err := svc.Append(context.Background(), submission.Record{SubmissionID: "c"})

	require.NoError(t, err)
	assert.Equal(t, 2, index)
}

func TestService_AppendExhaustsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1"), nil).Times(3)
	store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "v1").Return(submission.ErrVersionConflict).Times(3)

	svc := NewService(store, testOptions(), zerolog.Nop())
	_, err := svc.Append(context.Background(), submission.Record{SubmissionID: "c"})

	assert.ErrorIs(t, err, ErrSaveExhausted)
	assert.ErrorIs(t, err, submission.ErrVersionConflict)
}

func TestService_ReadFailureIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	boom := errors.New("network down")
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(nil, boom).Times(1)

	svc := NewService(store, testOptions(), zerolog.Nop())
	_, err := svc.Append(context.Background(), submission.Record{SubmissionID: "c"})

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSaveExhausted)
}

func TestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1", "a", "b"), nil).Times(2)

	svc := NewService(store, testOptions(), zerolog.Nop())

	rec, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "b", rec.SubmissionID)

	_, err = svc.Get(context.Background(), 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1", "a", "b", "c"), nil)
	store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "v1").
		DoAndReturn(func(_ context.Context, _ string, content []byte, _ string) error {
			assert.Equal(t, []string{"a", "c"}, decodeIDs(t, content))
			return nil
		})

	svc := NewService(store, testOptions(), zerolog.Nop())
	removed, err := svc.Delete(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "b", removed.SubmissionID)
}

func TestService_DeleteOutOfRangeWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1", "a"), nil)

	svc := NewService(store, testOptions(), zerolog.Nop())
	_, err := svc.Delete(context.Background(), 5)

	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestService_BulkDeleteUsesOneSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), recordsPath).Return(recordsDoc(t, "v1", "r0", "r1", "r2", "r3", "r4"), nil)
	store.EXPECT().PutFile(gomock.Any(), recordsPath, gomock.Any(), "v1").
		DoAndReturn(func(_ context.Context, _ string, content []byte, _ string) error {
			assert.Equal(t, []string{"r3"}, decodeIDs(t, content))
			return nil
		})

	svc := NewService(store, testOptions(), zerolog.Nop())
	indices, err := ParseIndexRange("1-3,5")
	require.NoError(t, err)

	n, err := svc.BulkDelete(context.Background(), indices)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestService_FastCommissionDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	store.EXPECT().GetFile(gomock.Any(), "data/fast.json").Return(nil, submission.ErrDocumentNotFound)

	svc := NewService(store, testOptions(), zerolog.Nop())
	pct, err := svc.FastCommission(context.Background(), "Harbour View")

	require.NoError(t, err)
	assert.True(t, pct.Equal(decimal.NewFromInt(50)))
}

func TestService_SetFastCommission(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	existing := &submission.Document{Content: []byte(`{"other": "40"}`), Version: "v7"}
	store.EXPECT().GetFile(gomock.Any(), "data/fast.json").Return(existing, nil)
	store.EXPECT().PutFile(gomock.Any(), "data/fast.json", gomock.Any(), "v7").
		DoAndReturn(func(_ context.Context, _ string, content []byte, _ string) error {
			var got map[string]decimal.Decimal
			require.NoError(t, json.Unmarshal(content, &got))
			assert.True(t, got["harbour view"].Equal(decimal.NewFromInt(30)))
			assert.True(t, got["other"].Equal(decimal.NewFromInt(40)))
			return nil
		})

	svc := NewService(store, testOptions(), zerolog.Nop())
	err := svc.SetFastCommission(context.Background(), " Harbour View ", decimal.NewFromInt(30))

	require.NoError(t, err)
}

func TestService_SetFastCommissionRejectsOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)

	svc := NewService(store, testOptions(), zerolog.Nop())

	assert.ErrorIs(t, svc.SetFastCommission(context.Background(), "p", decimal.NewFromInt(101)), ErrInvalidPercent)
	assert.ErrorIs(t, svc.SetFastCommission(context.Background(), "p", decimal.NewFromInt(-1)), ErrInvalidPercent)
}

func TestParseIndexRange(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{input: "1", want: []int{0}},
		{input: "1-3,5", want: []int{0, 1, 2, 4}},
		{input: " 2 , 4-4 ", want: []int{1, 3}},
		{input: "", wantErr: true},
		{input: "0", wantErr: true},
		{input: "3-1", wantErr: true},
		{input: "a-b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndexRange(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
