package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v66/github"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

// Store keeps documents as files in a GitHub repository. The blob sha is
// the document version, so GitHub rejects writes based on a stale read.
type Store struct {
	client *gh.Client
	owner  string
	repo   string
	branch string
}

// NewStore creates a store authenticated with token.
func NewStore(token, owner, repo, branch string) *Store {
	return NewStoreWithClient(gh.NewClient(nil).WithAuthToken(token), owner, repo, branch)
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *gh.Client, owner, repo, branch string) *Store {
	return &Store{client: client, owner: owner, repo: repo, branch: branch}
}

func (s *Store) GetFile(ctx context.Context, path string) (*submission.Document, error) {
	var opts *gh.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: s.branch}
	}
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, submission.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("github get %s: %w", path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("github get %s: path is a directory", path)
	}
	// files over 1 MB come back without inline content
	if file.GetEncoding() == "none" {
		raw, _, err := s.client.Git.GetBlobRaw(ctx, s.owner, s.repo, file.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("github get blob %s: %w", path, err)
		}
		return &submission.Document{Content: raw, Version: file.GetSHA()}, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github decode %s: %w", path, err)
	}
	return &submission.Document{Content: []byte(content), Version: file.GetSHA()}, nil
}

func (s *Store) PutFile(ctx context.Context, path string, content []byte, version string) error {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String("Update " + path),
		Content: content,
	}
	if s.branch != "" {
		opts.Branch = gh.String(s.branch)
	}

	var resp *gh.Response
	var err error
	if version == "" {
		_, resp, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		opts.SHA = gh.String(version)
		_, resp, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err == nil {
		return nil
	}
	if isConflict(resp, err) {
		return fmt.Errorf("%w: %s", submission.ErrVersionConflict, path)
	}
	return fmt.Errorf("github put %s: %w", path, err)
}

// isConflict recognises GitHub's answers to a stale sha: 409 for a
// mismatched update and 422 when a create races an existing file.
func isConflict(resp *gh.Response, err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		resp = &gh.Response{Response: ghErr.Response}
	}
	if resp == nil || resp.Response == nil {
		return false
	}
	switch resp.StatusCode {
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}
