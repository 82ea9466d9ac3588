package submission

import "strings"

// TokenField is the form field that carries the session token.
const TokenField = "sessionToken"

// UploadForm is an external document-collection form bound to one token
type UploadForm struct {
	FormID string `json:"formId"`
	URL    string `json:"url"`
}

// FormSubmission is one completed external form, normalised from either a
// webhook push or a poll.
type FormSubmission struct {
	ID       string            `json:"id"`
	FormID   string            `json:"formId"`
	Answers  map[string]string `json:"answers"`
	FileURLs []string          `json:"fileUrls,omitempty"`
}

// SessionToken finds the token answer. Form providers prefix field names
// with a question id ("q3_sessionToken"), so a suffix match is accepted.
func (s FormSubmission) SessionToken() string {
	if v, ok := s.Answers[TokenField]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range s.Answers {
		if strings.HasSuffix(k, "_"+TokenField) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// RemoteFile is a downloadable file attached to a form submission
type RemoteFile struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
}

// StoredFile is the storage-side identity of an uploaded file
type StoredFile struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// Document is a versioned blob in the backup repository
type Document struct {
	Content []byte
	Version string
}
