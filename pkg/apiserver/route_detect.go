package apiserver

import (
	"errors"
	"net/http"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/services"
)

// detectRequest is the wire form of a detection request. Threshold overrides
// are optional; absent fields keep the configured defaults.
type detectRequest struct {
	Text              string            `json:"text"`
	Languages         []string          `json:"languages,omitempty"`
	Threshold         *float64          `json:"threshold,omitempty"`
	BlockThreshold    *float64          `json:"block_threshold,omitempty"`
	IncludeHighlights *bool             `json:"include_highlights,omitempty"`
	Context           map[string]string `json:"context,omitempty"`
}

// toServiceRequest maps the wire request onto the service request, filling
// partial threshold overrides from the engine defaults.
func (s *DetectionAPIServer) toServiceRequest(req detectRequest) services.DetectRequest {
	out := services.DetectRequest{
		Text:              req.Text,
		LanguageHints:     req.Languages,
		IncludeHighlights: true,
		Context:           req.Context,
	}
	if req.IncludeHighlights != nil {
		out.IncludeHighlights = *req.IncludeHighlights
	}
	if req.Threshold != nil || req.BlockThreshold != nil {
		th := s.detectionSvc.Defaults()
		if req.Threshold != nil {
			th.AllowBelow = *req.Threshold
		}
		if req.BlockThreshold != nil {
			th.BlockAtOrAbove = *req.BlockThreshold
		}
		out.Thresholds = &th
	}
	return out
}

// handleDetect handles single-text detection requests.
func (s *DetectionAPIServer) handleDetect(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(w, r)

	var req detectRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	response, err := s.detectionSvc.Detect(r.Context(), s.toServiceRequest(req))
	if err != nil {
		logging.Warnf("detect request %s failed: %v", requestID, err)
		s.writeDetectionError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// writeDetectionError maps the error taxonomy onto HTTP status codes.
func (s *DetectionAPIServer) writeDetectionError(w http.ResponseWriter, err error) {
	var invalidInput *detection.InvalidInputError
	var invalidThreshold *detection.InvalidThresholdError
	var tooLarge *detection.BatchTooLargeError
	var fatal *detection.ClassifierFatalError

	switch {
	case errors.As(err, &invalidInput):
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.As(err, &invalidThreshold):
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_THRESHOLD", err.Error())
	case errors.As(err, &tooLarge):
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "BATCH_TOO_LARGE", err.Error())
	case errors.As(err, &fatal):
		s.writeErrorResponse(w, http.StatusBadGateway, "CLASSIFIER_ERROR", err.Error())
	default:
		s.writeErrorResponse(w, http.StatusInternalServerError, "DETECTION_ERROR", err.Error())
	}
}
