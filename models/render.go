package models

import "strings"

// Quality is the renderer quality tier requested by a submitter.
type Quality string

const (
	QualityLow    Quality = "l" // 480p15
	QualityMedium Quality = "m" // 720p30
	QualityHigh   Quality = "h" // 1080p60
)

// ParseQuality accepts "l", "m", "h" and the long forms "low", "medium",
// "high". Anything else, including the empty string, falls back to low.
func ParseQuality(s string) Quality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "medium":
		return QualityMedium
	case "h", "high":
		return QualityHigh
	default:
		return QualityLow
	}
}

// Flag returns the renderer command-line flag for the tier.
func (q Quality) Flag() string {
	return "-q" + string(ParseQuality(string(q)))
}

// RenderRequest is the body of POST /execute.
type RenderRequest struct {
	Code    string `json:"code"`
	Quality string `json:"quality"`
}

// AsyncRenderRequest is the body of POST /execute-async.
type AsyncRenderRequest struct {
	Code        string `json:"code"`
	Quality     string `json:"quality"`
	AnimationID string `json:"animation_id"`
	WebhookURL  string `json:"webhook_url"`
}

// RenderResponse is returned synchronously by POST /execute.
type RenderResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	VideoURL     *string  `json:"video_url,omitempty"`
	ThumbnailURL *string  `json:"thumbnail_url,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	Error        *string  `json:"error,omitempty"`
}

// AsyncAccepted is the immediate acknowledgement of POST /execute-async.
type AsyncAccepted struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AnimationID string `json:"animation_id"`
}

// WebhookPayload is POSTed exactly once to the webhook URL of an async
// request. Absent values are serialised as JSON null.
type WebhookPayload struct {
	AnimationID  string   `json:"animation_id"`
	Success      bool     `json:"success"`
	VideoURL     *string  `json:"video_url"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	Duration     *float64 `json:"duration"`
	Error        *string  `json:"error"`
}

// UploadResult holds the public URLs of an uploaded render.
type UploadResult struct {
	VideoURL     string `json:"video_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"` // empty when no thumbnail
}

// RenderResult is the successful end of the validate → render → upload
// sequence.
type RenderResult struct {
	Upload   UploadResult
	Duration float64
}
