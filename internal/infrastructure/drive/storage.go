// Package drive stores transferred documents in Google Drive.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Storage implements submission.StorageGateway.
type Storage struct {
	svc *drive.Service
	// folderMu serialises lookup-then-create so one name never yields two
	// folders.
	folderMu sync.Mutex
}

// NewStorage authenticates with an OAuth refresh token.
func NewStorage(ctx context.Context, clientID, clientSecret, refreshToken string) (*Storage, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Storage{svc: svc}, nil
}

// NewStorageWithService wraps an existing Drive client.
func NewStorageWithService(svc *drive.Service) *Storage {
	return &Storage{svc: svc}
}

func (s *Storage) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	s.folderMu.Lock()
	defer s.folderMu.Unlock()

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	list, err := s.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive folder lookup %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	created, err := s.svc.Files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive folder create %q: %w", name, err)
	}
	return created.Id, nil
}

func (s *Storage) UploadFile(ctx context.Context, folderID, name, mimeType string, content []byte) (*submission.StoredFile, error) {
	meta := &drive.File{Name: name, Parents: []string{folderID}}
	if mimeType != "" {
		meta.MimeType = mimeType
	}
	call := s.svc.Files.Create(meta).
		Fields("id, webViewLink").
		SupportsAllDrives(true).
		Context(ctx)
	if mimeType != "" {
		call = call.Media(bytes.NewReader(content), googleapi.ContentType(mimeType))
	} else {
		call = call.Media(bytes.NewReader(content))
	}
	f, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload %q: %w", name, err)
	}
	link := f.WebViewLink
	if link == "" {
		link = "https://drive.google.com/file/d/" + f.Id + "/view"
	}
	return &submission.StoredFile{ID: f.Id, Link: link}, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
