package jotform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key-123", zerolog.Nop(), opts...)
}

func writeContent(w http.ResponseWriter, content any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": 200, "message": "success", "content": content})
}

func TestClient_CreateUploadForm(t *testing.T) {
	var webhookCalls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("APIKEY"))
		switch r.URL.Path {
		case "/form":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, submission.TokenField, r.PostForm.Get("questions[1][name]"))
			assert.Equal(t, "tok-1", r.PostForm.Get("questions[1][defaultValue]"))
			assert.Equal(t, "control_fileupload", r.PostForm.Get("questions[2][type]"))
			writeContent(w, map[string]string{"id": "f1", "url": "https://form.jotform.com/f1"})
		case "/form/f1/webhooks":
			webhookCalls++
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "https://bot.example/webhooks/form", r.PostForm.Get("webhookURL"))
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": 400, "message": "Webhook already exists"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}, WithWebhook("https://bot.example/webhooks/form"))

	form, err := client.CreateUploadForm(context.Background(), submission.ProjectInfo{Name: "Harbour View", Unit: "A-12"}, "tok-1")

	require.NoError(t, err)
	assert.Equal(t, "f1", form.FormID)
	u, err := url.Parse(form.URL)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", u.Query().Get(submission.TokenField))
	assert.Equal(t, 1, webhookCalls)
}

func TestClient_ErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, want: ErrUnavailable},
		{name: "bad request", status: http.StatusUnauthorized, want: submission.ErrPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := client.CreateUploadForm(context.Background(), submission.ProjectInfo{}, "tok")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_ResponseCodeInBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"responseCode": 429, "message": "limit"})
	})

	_, err := client.PollSubmissions(context.Background(), "f1")

	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClient_PollSubmissions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/form/f1/submissions", r.URL.Path)
		writeContent(w, []map[string]any{
			{
				"id":      "s1",
				"form_id": "f1",
				"answers": map[string]any{
					"2": map[string]any{"name": "sessionToken", "type": "control_textbox", "answer": "tok-1"},
					"3": map[string]any{"name": "documents", "type": "control_fileupload", "answer": []string{"https://files.jotform.com/a%20b.pdf"}},
					"4": map[string]any{"name": "heading", "type": "control_head"},
				},
			},
		})
	})

	subs, err := client.PollSubmissions(context.Background(), "f1")

	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "s1", subs[0].ID)
	assert.Equal(t, "tok-1", subs[0].SessionToken())
	assert.Equal(t, []string{"https://files.jotform.com/a%20b.pdf"}, subs[0].FileURLs)
}

func TestClient_FetchAndDownload(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/submission/s1":
			writeContent(w, map[string]any{
				"id":      "s1",
				"form_id": "f1",
				"answers": map[string]any{
					"3": map[string]any{"name": "documents", "answer": []string{srvURL + "/uploads/contract.pdf", "not-a-url"}},
				},
			})
		case "/uploads/contract.pdf":
			assert.Equal(t, "key-123", r.Header.Get("APIKEY"))
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	client := NewClient(srv.URL, "key-123", zerolog.Nop())

	files, err := client.FetchSubmissionFiles(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "contract.pdf", files[0].Name)

	data, mime, err := client.Download(context.Background(), files[0])
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, "application/pdf", mime)

	_, _, err = client.Download(context.Background(), submission.RemoteFile{Name: "gone", URL: srv.URL + "/uploads/gone"})
	assert.ErrorIs(t, err, submission.ErrPermanent)
}

func TestClient_DownloadTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "key-123", zerolog.Nop(), WithMaxDownloadSize(8))

	_, _, err := client.Download(context.Background(), submission.RemoteFile{Name: "big.pdf", URL: srv.URL + "/uploads/big.pdf"})
	assert.ErrorIs(t, err, submission.ErrPermanent)

	client = NewClient(srv.URL, "key-123", zerolog.Nop(), WithMaxDownloadSize(10))
	data, _, err := client.Download(context.Background(), submission.RemoteFile{Name: "big.pdf", URL: srv.URL + "/uploads/big.pdf"})
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestParseWebhook(t *testing.T) {
	raw := `{"q3_sessionToken":"tok-1","q4_documents":["https://files.jotform.com/x.pdf"],"slug":"submit/1"}`

	sub, err := ParseWebhook("s1", "f1", raw)

	require.NoError(t, err)
	assert.Equal(t, "s1", sub.ID)
	assert.Equal(t, "f1", sub.FormID)
	assert.Equal(t, "tok-1", sub.SessionToken())
	assert.Equal(t, []string{"https://files.jotform.com/x.pdf"}, sub.FileURLs)

	_, err = ParseWebhook("s1", "f1", "{not json")
	assert.Error(t, err)

	sub, err = ParseWebhook("s1", "f1", "")
	require.NoError(t, err)
	assert.Empty(t, sub.SessionToken())
}
