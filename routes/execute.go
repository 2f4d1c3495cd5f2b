package routes

import (
	"net/http"

	"manimserve/logger"
	"manimserve/models"
)

const (
	msgRendered       = "Video rendered and uploaded successfully"
	msgAccepted       = "Render job started"
	msgInvalidBody    = "Invalid JSON body"
	msgRejected       = "Code validation failed"
	msgRenderFailed   = "Rendering failed"
	msgServiceTooBusy = "Render service is busy, retry later"
)

func failure(message string, err error) models.RenderResponse {
	text := err.Error()
	return models.RenderResponse{Success: false, Message: message, Error: &text}
}

// Execute renders synchronously and answers with the uploaded URLs.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.RenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(msgInvalidBody, err))
		return
	}

	id, res, err := h.d.Dispatcher.Execute(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		msg := msgRenderFailed
		switch status {
		case http.StatusBadRequest:
			msg = msgRejected
		case http.StatusServiceUnavailable:
			msg = msgServiceTooBusy
		}
		logger.Debugf("execute %s answered %d: %v", id, status, err)
		writeJSON(w, status, failure(msg, err))
		return
	}

	resp := models.RenderResponse{
		Success:  true,
		Message:  msgRendered,
		VideoURL: &res.Upload.VideoURL,
		Duration: &res.Duration,
	}
	if res.Upload.ThumbnailURL != "" {
		resp.ThumbnailURL = &res.Upload.ThumbnailURL
	}
	w.Header().Set("X-Render-Id", id)
	writeJSON(w, http.StatusOK, resp)
}

// ExecuteAsync acknowledges immediately; the outcome goes to the webhook.
func (h *Handler) ExecuteAsync(w http.ResponseWriter, r *http.Request) {
	var req models.AsyncRenderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(msgInvalidBody, err))
		return
	}

	if err := h.d.Dispatcher.Submit(req); err != nil {
		status := statusFor(err)
		if status == http.StatusServiceUnavailable {
			logger.Warnf("async render %s refused: %v", req.AnimationID, err)
		}
		writeJSON(w, status, models.AsyncAccepted{Success: false, Message: err.Error(), AnimationID: req.AnimationID})
		return
	}

	writeJSON(w, http.StatusOK, models.AsyncAccepted{
		Success:     true,
		Message:     msgAccepted,
		AnimationID: req.AnimationID,
	})
}

