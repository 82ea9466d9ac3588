package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/execution-hub/commission-bot/internal/api/http/mocks"
	appAuth "github.com/execution-hub/commission-bot/internal/application/auth"
	appWorkflow "github.com/execution-hub/commission-bot/internal/application/workflow"
	"github.com/execution-hub/commission-bot/internal/domain/notification"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/infrastructure/sse"
)

const operatorKey = "ops-key"

func newTestServer(t *testing.T, forms FormHandler, hub *sse.Hub) *Server {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(operatorKey), bcrypt.MinCost)
	require.NoError(t, err)
	return NewServer(forms, appAuth.NewService(string(hash), zerolog.Nop()), hub, zerolog.Nop())
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().ActiveSessions().Return(2)
	srv := newTestServer(t, forms, sse.NewHub())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["active_sessions"])
}

func TestFormWebhook_Multipart(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().
		HandleFormSubmission(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sub submission.FormSubmission) (appWorkflow.Outcome, error) {
			assert.Equal(t, "5551", sub.ID)
			assert.Equal(t, "f1", sub.FormID)
			assert.Equal(t, "tok-1", sub.SessionToken())
			assert.Equal(t, []string{"https://files.example/a.pdf"}, sub.FileURLs)
			return appWorkflow.OutcomeCompleted, nil
		})
	srv := newTestServer(t, forms, sse.NewHub())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("submissionID", "5551"))
	require.NoError(t, mw.WriteField("formID", "f1"))
	require.NoError(t, mw.WriteField("rawRequest", `{"q3_sessionToken":"tok-1","q4_documents":["https://files.example/a.pdf"]}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/form", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decodeJSON(t, rec)["status"])
}

func TestFormWebhook_URLEncoded(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().
		HandleFormSubmission(gomock.Any(), gomock.Any()).
		Return(appWorkflow.OutcomeUnmatched, nil)
	srv := newTestServer(t, forms, sse.NewHub())

	form := url.Values{"submissionID": {"9"}, "formID": {"f2"}, "rawRequest": {`{}`}}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unmatched", decodeJSON(t, rec)["status"])
}

func TestFormWebhook_JSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().
		HandleFormSubmission(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, sub submission.FormSubmission) (appWorkflow.Outcome, error) {
			assert.Equal(t, "77", sub.ID)
			assert.Equal(t, "tok-json", sub.SessionToken())
			return appWorkflow.OutcomeAlreadyProcessed, nil
		})
	srv := newTestServer(t, forms, sse.NewHub())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/form",
		strings.NewReader(`{"submissionId":"77","formId":"f3","rawAnswers":{"sessionToken":"tok-json"}}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_processed", decodeJSON(t, rec)["status"])
}

func TestFormWebhook_BadBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newTestServer(t, mocks.NewMockFormHandler(ctrl), sse.NewHub())

	cases := map[string]*http.Request{
		"bad json": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader("{"))
			r.Header.Set("Content-Type", "application/json")
			return r
		}(),
		"bad rawRequest": func() *http.Request {
			form := url.Values{"submissionID": {"1"}, "rawRequest": {"not json"}}
			r := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return r
		}(),
		"missing id": func() *http.Request {
			r := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader(`{"formId":"f"}`))
			r.Header.Set("Content-Type", "application/json")
			return r
		}(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestFormWebhook_HandlerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().
		HandleFormSubmission(gomock.Any(), gomock.Any()).
		Return(appWorkflow.Outcome(""), errors.New("drive down"))
	srv := newTestServer(t, forms, sse.NewHub())

	req := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader(`{"submissionId":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "drive down")
}

func TestFormWebhook_SurvivesCallerCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	forms := mocks.NewMockFormHandler(ctrl)
	forms.EXPECT().
		HandleFormSubmission(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ submission.FormSubmission) (appWorkflow.Outcome, error) {
			assert.NoError(t, ctx.Err())
			return appWorkflow.OutcomeCompleted, nil
		})
	srv := newTestServer(t, forms, sse.NewHub())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/form", strings.NewReader(`{"submissionId":"1"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvents_RequiresOperatorKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := newTestServer(t, mocks.NewMockFormHandler(ctrl), sse.NewHub())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEvents_DisabledWithoutHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := NewServer(mocks.NewMockFormHandler(ctrl), appAuth.NewService("", zerolog.Nop()), sse.NewHub(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	req.Header.Set("Authorization", "Bearer "+operatorKey)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_StreamsBroadcasts(t *testing.T) {
	ctrl := gomock.NewController(t)
	hub := sse.NewHub()
	srv := newTestServer(t, mocks.NewMockFormHandler(ctrl), hub)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/events?client_id=op-1&key="+operatorKey, nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected op-1\n", line)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.BroadcastToAll(notification.NewSSEMessage("submission_completed", json.RawMessage(`{"ok":true}`)))

	var lines []string
	for len(lines) < 4 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" && len(lines) == 0 {
			continue
		}
		lines = append(lines, line)
	}
	assert.True(t, strings.HasPrefix(lines[0], "id: "))
	assert.Equal(t, "event: submission_completed\n", lines[1])
	assert.Equal(t, "data: {\"ok\":true}\n", lines[2])
	assert.Equal(t, "\n", lines[3])
}
