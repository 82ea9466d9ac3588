// Package jotform implements the form gateway over the Jotform REST API.
package jotform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
)

const DefaultBaseURL = "https://api.jotform.com"

// MaxDownloadSize bounds a single attachment download.
const MaxDownloadSize = 100 << 20

var (
	ErrRateLimited = errors.New("jotform rate limit")
	ErrUnavailable = errors.New("jotform unavailable")
)

// Client talks to Jotform. It implements submission.FormGateway.
type Client struct {
	baseURL    string
	apiKey     string
	webhookURL string
	maxFile    int64
	http       *http.Client
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithWebhook registers url on every form created so completions are
// pushed as well as polled.
func WithWebhook(target string) Option {
	return func(c *Client) { c.webhookURL = target }
}

// WithMaxDownloadSize overrides MaxDownloadSize.
func WithMaxDownloadSize(n int64) Option {
	return func(c *Client) { c.maxFile = n }
}

// NewClient creates a Jotform client. An empty baseURL uses the public API.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		maxFile: MaxDownloadSize,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("service", "jotform").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	ResponseCode int             `json:"responseCode"`
	Message      string          `json:"message"`
	Content      json.RawMessage `json:"content"`
}

type answer struct {
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
}

type rawSubmission struct {
	ID      string            `json:"id"`
	FormID  string            `json:"form_id"`
	Answers map[string]answer `json:"answers"`
}

// CreateUploadForm creates a form with a hidden token field and a file
// upload question. The returned URL pre-fills the token.
func (c *Client) CreateUploadForm(ctx context.Context, project submission.ProjectInfo, sessionToken string) (*submission.UploadForm, error) {
	form := url.Values{}
	form.Set("properties[title]", fmt.Sprintf("Documents - %s %s", project.Name, project.Unit))
	form.Set("questions[0][type]", "control_head")
	form.Set("questions[0][text]", fmt.Sprintf("%s - %s", project.Name, project.Unit))
	form.Set("questions[0][order]", "1")
	form.Set("questions[1][type]", "control_textbox")
	form.Set("questions[1][name]", submission.TokenField)
	form.Set("questions[1][text]", "Reference")
	form.Set("questions[1][hidden]", "Yes")
	form.Set("questions[1][defaultValue]", sessionToken)
	form.Set("questions[1][order]", "2")
	form.Set("questions[2][type]", "control_fileupload")
	form.Set("questions[2][name]", "documents")
	form.Set("questions[2][text]", "Upload documents")
	form.Set("questions[2][allowMultiple]", "Yes")
	form.Set("questions[2][required]", "Yes")
	form.Set("questions[2][order]", "3")
	form.Set("questions[3][type]", "control_button")
	form.Set("questions[3][text]", "Submit")
	form.Set("questions[3][order]", "4")

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/form", form, &created); err != nil {
		return nil, fmt.Errorf("create form: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("create form: %w: empty form id", submission.ErrPermanent)
	}

	if c.webhookURL != "" {
		if err := c.registerWebhook(ctx, created.ID); err != nil {
			// polling still finds the submission
			c.logger.Warn().Err(err).Str("form_id", created.ID).Msg("webhook registration failed")
		}
	}

	formURL := created.URL
	if formURL == "" {
		formURL = "https://form.jotform.com/" + created.ID
	}
	return &submission.UploadForm{
		FormID: created.ID,
		URL:    formURL + "?" + url.Values{submission.TokenField: {sessionToken}}.Encode(),
	}, nil
}

func (c *Client) registerWebhook(ctx context.Context, formID string) error {
	err := c.do(ctx, http.MethodPost, "/form/"+url.PathEscape(formID)+"/webhooks", url.Values{"webhookURL": {c.webhookURL}}, nil)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}
	return err
}

// PollSubmissions lists the submissions received by formID.
func (c *Client) PollSubmissions(ctx context.Context, formID string) ([]submission.FormSubmission, error) {
	var raw []rawSubmission
	if err := c.do(ctx, http.MethodGet, "/form/"+url.PathEscape(formID)+"/submissions", nil, &raw); err != nil {
		return nil, fmt.Errorf("poll submissions: %w", err)
	}
	out := make([]submission.FormSubmission, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalise(formID))
	}
	return out, nil
}

// FetchSubmissionFiles lists the uploaded files of one submission.
func (c *Client) FetchSubmissionFiles(ctx context.Context, submissionID string) ([]submission.RemoteFile, error) {
	var raw rawSubmission
	if err := c.do(ctx, http.MethodGet, "/submission/"+url.PathEscape(submissionID), nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch submission: %w", err)
	}
	sub := raw.normalise(raw.FormID)
	files := make([]submission.RemoteFile, 0, len(sub.FileURLs))
	for _, u := range sub.FileURLs {
		files = append(files, submission.RemoteFile{Name: fileName(u), URL: u})
	}
	return files, nil
}

// Download fetches a file. Jotform serves uploads only to authenticated
// callers, so the API key is sent along.
func (c *Client) Download(ctx context.Context, file submission.RemoteFile) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", submission.ErrPermanent, err)
	}
	req.Header.Set("APIKEY", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w: %v", file.Name, ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode, resp.Status); err != nil {
		return nil, "", fmt.Errorf("download %s: %w", file.Name, err)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFile+1))
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", file.Name, err)
	}
	if int64(len(data)) > c.maxFile {
		return nil, "", fmt.Errorf("download %s: %w: larger than %d bytes", file.Name, submission.ErrPermanent, c.maxFile)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	u := c.baseURL + endpoint
	var body io.Reader
	if form != nil && method != http.MethodGet {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%w: %v", submission.ErrPermanent, err)
	}
	req.Header.Set("APIKEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var env envelope
	_ = json.Unmarshal(data, &env)
	if err := statusError(resp.StatusCode, env.Message); err != nil {
		return err
	}
	if env.ResponseCode != 0 {
		if err := statusError(env.ResponseCode, env.Message); err != nil {
			return err
		}
	}
	if out == nil || len(env.Content) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Content, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", submission.ErrPermanent, err)
	}
	return nil
}

// statusError maps an HTTP status to the gateway's error classes: 429 and
// 5xx are retryable, other 4xx are permanent.
func statusError(code int, msg string) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case code >= 500:
		return fmt.Errorf("%w: %d %s", ErrUnavailable, code, msg)
	default:
		return fmt.Errorf("%w: %d %s", submission.ErrPermanent, code, msg)
	}
}

func (r rawSubmission) normalise(formID string) submission.FormSubmission {
	sub := submission.FormSubmission{
		ID:      r.ID,
		FormID:  formID,
		Answers: make(map[string]string, len(r.Answers)),
	}
	for _, k := range sortedKeys(r.Answers) {
		a := r.Answers[k]
		if len(a.Answer) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(a.Answer, &s); err == nil {
			if a.Name != "" {
				sub.Answers[a.Name] = s
			}
			continue
		}
		var list []string
		if err := json.Unmarshal(a.Answer, &list); err == nil {
			sub.FileURLs = append(sub.FileURLs, fileURLs(list)...)
		}
	}
	return sub
}

// ParseWebhook normalises a webhook push. rawRequest is the JSON object of
// answers keyed by "q<id>_<name>".
func ParseWebhook(submissionID, formID, rawRequest string) (submission.FormSubmission, error) {
	sub := submission.FormSubmission{ID: submissionID, FormID: formID, Answers: map[string]string{}}
	if strings.TrimSpace(rawRequest) == "" {
		return sub, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawRequest), &raw); err != nil {
		return sub, fmt.Errorf("decode rawRequest: %w", err)
	}
	return fromAnswerMap(sub, raw), nil
}

// FromRawAnswers normalises an already decoded answers object.
func FromRawAnswers(submissionID, formID string, raw map[string]json.RawMessage) submission.FormSubmission {
	sub := submission.FormSubmission{ID: submissionID, FormID: formID, Answers: map[string]string{}}
	return fromAnswerMap(sub, raw)
}

func fromAnswerMap(sub submission.FormSubmission, raw map[string]json.RawMessage) submission.FormSubmission {
	for _, k := range sortedKeys(raw) {
		v := raw[k]
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			sub.Answers[k] = s
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			sub.FileURLs = append(sub.FileURLs, fileURLs(list)...)
		}
	}
	return sub
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fileURLs(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			out = append(out, s)
		}
	}
	return out
}

func fileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return path.Base(raw)
	}
	name, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return path.Base(u.Path)
	}
	return name
}
