package submission

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . DocumentStore,FormGateway,StorageGateway

import (
	"context"
	"errors"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrVersionConflict  = errors.New("document version conflict")
	// ErrPermanent marks gateway failures that retrying cannot fix, such
	// as a rejected request.
	ErrPermanent = errors.New("permanent gateway failure")
)

// DocumentStore is the versioned store used as the backup repository
type DocumentStore interface {
	// GetFile returns ErrDocumentNotFound when nothing is stored at path.
	GetFile(ctx context.Context, path string) (*Document, error)
	// PutFile writes content if the stored version still equals version.
	// An empty version means the document must not exist yet.
	PutFile(ctx context.Context, path string, content []byte, version string) error
}

// FormGateway creates and reads external document-collection forms
type FormGateway interface {
	CreateUploadForm(ctx context.Context, project ProjectInfo, sessionToken string) (*UploadForm, error)
	PollSubmissions(ctx context.Context, formID string) ([]FormSubmission, error)
	FetchSubmissionFiles(ctx context.Context, submissionID string) ([]RemoteFile, error)
	Download(ctx context.Context, file RemoteFile) ([]byte, string, error)
}

// StorageGateway stores transferred documents
type StorageGateway interface {
	// EnsureFolder returns the existing folder with this name under parent
	// or creates it.
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)
	UploadFile(ctx context.Context, folderID, name, mimeType string, content []byte) (*StoredFile, error)
}
