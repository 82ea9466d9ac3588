package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// querier is the subset of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentRepository implements submission.DocumentStore. The version
// column is bumped on every write and writes are conditioned on it.
type DocumentRepository struct {
	db querier
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func (r *DocumentRepository) GetFile(ctx context.Context, path string) (*submission.Document, error) {
	var content []byte
	var version int64
	err := r.db.QueryRow(ctx, `SELECT content, version FROM documents WHERE path=$1`, path).Scan(&content, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, submission.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return &submission.Document{Content: content, Version: strconv.FormatInt(version, 10)}, nil
}

func (r *DocumentRepository) PutFile(ctx context.Context, path string, content []byte, version string) error {
	if version == "" {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO documents (path, content, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (path) DO NOTHING
		`, path, content)
		if err != nil {
			return fmt.Errorf("failed to create document %s: %w", path, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s already exists", submission.ErrVersionConflict, path)
		}
		return nil
	}

	expected, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: unparsable version %q", submission.ErrVersionConflict, version)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE documents SET content=$2, version=version+1, updated_at=now()
		WHERE path=$1 AND version=$3
	`, path, content, expected)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s changed since version %s", submission.ErrVersionConflict, path, version)
	}
	return nil
}
