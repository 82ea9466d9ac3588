package transfer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const tokenPrefixLen = 8

// Target identifies whose documents are being moved and where they belong.
type Target struct {
	UserID      string
	DisplayName string
	Project     string
	Unit        string
	Token       string
}

func (t Target) cacheKey() string {
	return strings.Join([]string{t.UserID, t.Project, t.Unit, t.Token}, "\x00")
}

// Service copies form attachments into object storage.
type Service struct {
	forms   submission.FormGateway
	storage submission.StorageGateway
	rootID  string
	logger  zerolog.Logger

	mu      sync.Mutex
	folders map[string]string
}

// NewService creates a transfer service rooted at rootFolderID.
func NewService(forms submission.FormGateway, storage submission.StorageGateway, rootFolderID string, logger zerolog.Logger) *Service {
	return &Service{
		forms:   forms,
		storage: storage,
		rootID:  rootFolderID,
		logger:  logger.With().Str("service", "transfer").Logger(),
		folders: make(map[string]string),
	}
}

// Transfer downloads every file and uploads it under the target's folder.
// Any failure aborts the whole transfer.
func (s *Service) Transfer(ctx context.Context, target Target, files []submission.RemoteFile) ([]submission.UploadedFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	folderID, err := s.folderFor(ctx, target)
	if err != nil {
		return nil, err
	}

	out := make([]submission.UploadedFile, 0, len(files))
	for _, f := range files {
		content, mimeType, err := s.forms.Download(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		if mimeType == "" {
			mimeType = f.MimeType
		}
		stored, err := s.storage.UploadFile(ctx, folderID, f.Name, mimeType, content)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", f.Name, err)
		}
		out = append(out, submission.UploadedFile{
			OriginalName: f.Name,
			StorageID:    stored.ID,
			Link:         stored.Link,
		})
	}

	s.logger.Info().
		Str("user_id", target.UserID).
		Str("folder_id", folderID).
		Int("files", len(out)).
		Msg("documents transferred")
	return out, nil
}

// folderFor resolves <root>/<project> - <unit>/<display name> - <token prefix>,
// creating folders on first use. Resolved ids are cached for the process
// lifetime.
func (s *Service) folderFor(ctx context.Context, target Target) (string, error) {
	key := target.cacheKey()
	s.mu.Lock()
	id, ok := s.folders[key]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	projectFolder, err := s.storage.EnsureFolder(ctx, ProjectFolderName(target.Project, target.Unit), s.rootID)
	if err != nil {
		return "", fmt.Errorf("failed to ensure project folder: %w", err)
	}
	userFolder, err := s.storage.EnsureFolder(ctx, UserFolderName(target.DisplayName, target.Token), projectFolder)
	if err != nil {
		return "", fmt.Errorf("failed to ensure user folder: %w", err)
	}

	s.mu.Lock()
	s.folders[key] = userFolder
	s.mu.Unlock()
	return userFolder, nil
}

// ProjectFolderName names the per-project folder.
func ProjectFolderName(project, unit string) string {
	return fmt.Sprintf("%s - %s", strings.TrimSpace(project), strings.TrimSpace(unit))
}

// UserFolderName names the per-submitter folder inside a project folder.
func UserFolderName(displayName, token string) string {
	prefix := token
	if len(prefix) > tokenPrefixLen {
		prefix = prefix[:tokenPrefixLen]
	}
	return fmt.Sprintf("%s - %s", strings.TrimSpace(displayName), prefix)
}
