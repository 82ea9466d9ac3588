package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

type fakeRow struct {
	content []byte
	version int64
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.content
	*dest[1].(*int64) = r.version
	return nil
}

// fakeDB keeps one row in memory and honours the version condition.
type fakeDB struct {
	exists  bool
	content []byte
	version int64
	execErr error
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if !f.exists {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{content: f.content, version: f.version}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.Contains(sql, "INSERT") {
		if f.exists {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		f.exists, f.content, f.version = true, args[1].([]byte), 1
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	if !f.exists || args[2].(int64) != f.version {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	f.content = args[1].([]byte)
	f.version++
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func TestDocumentRepository_Lifecycle(t *testing.T) {
	db := &fakeDB{}
	repo := &DocumentRepository{db: db}
	ctx := context.Background()

	_, err := repo.GetFile(ctx, "records.json")
	assert.ErrorIs(t, err, submission.ErrDocumentNotFound)

	require.NoError(t, repo.PutFile(ctx, "records.json", []byte("[]"), ""))
	doc, err := repo.GetFile(ctx, "records.json")
	require.NoError(t, err)
	assert.Equal(t, "1", doc.Version)
	assert.Equal(t, "[]", string(doc.Content))

	require.NoError(t, repo.PutFile(ctx, "records.json", []byte("[1]"), doc.Version))
	doc, err = repo.GetFile(ctx, "records.json")
	require.NoError(t, err)
	assert.Equal(t, "2", doc.Version)
}

func TestDocumentRepository_Conflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("create over existing", func(t *testing.T) {
		repo := &DocumentRepository{db: &fakeDB{exists: true, version: 3}}
		assert.ErrorIs(t, repo.PutFile(ctx, "p", []byte("x"), ""), submission.ErrVersionConflict)
	})

	t.Run("stale version", func(t *testing.T) {
		repo := &DocumentRepository{db: &fakeDB{exists: true, version: 3}}
		assert.ErrorIs(t, repo.PutFile(ctx, "p", []byte("x"), "2"), submission.ErrVersionConflict)
	})

	t.Run("garbage version", func(t *testing.T) {
		repo := &DocumentRepository{db: &fakeDB{exists: true, version: 3}}
		assert.ErrorIs(t, repo.PutFile(ctx, "p", []byte("x"), "sha-abc"), submission.ErrVersionConflict)
	})
}

func TestDocumentRepository_DatabaseErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &DocumentRepository{db: &fakeDB{exists: true, version: 1, execErr: boom}}

	err := repo.PutFile(context.Background(), "p", []byte("x"), "1")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, submission.ErrVersionConflict)
}

func TestMigrationsBundled(t *testing.T) {
	data, err := migrationFiles.ReadFile("migrations/001_documents.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS documents")
}
