package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/infrastructure/jotform"
)

const maxWebhookMemory = 8 << 20

type webhookJSONRequest struct {
	SubmissionID string                     `json:"submissionId"`
	FormID       string                     `json:"formId"`
	RawAnswers   map[string]json.RawMessage `json:"rawAnswers"`
}

// formWebhook receives completion pushes from the form provider. Every
// decodable push is acknowledged with 200 so the provider does not retry
// submissions the bot chose to ignore.
func (s *Server) formWebhook(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeWebhook(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if sub.ID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "submission id required")
		return
	}

	// The transfer outlives an impatient caller.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.webhookTimeout)
	defer cancel()

	outcome, err := s.forms.HandleFormSubmission(ctx, sub)
	if err != nil {
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("submission_id", sub.ID).
			Msg("form webhook failed")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "submission could not be processed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": outcome})
}

func decodeWebhook(r *http.Request) (submission.FormSubmission, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req webhookJSONRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return submission.FormSubmission{}, err
		}
		return jotform.FromRawAnswers(req.SubmissionID, req.FormID, req.RawAnswers), nil
	}

	if err := r.ParseMultipartForm(maxWebhookMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return submission.FormSubmission{}, err
	}
	return jotform.ParseWebhook(r.FormValue("submissionID"), r.FormValue("formID"), r.FormValue("rawRequest"))
}
