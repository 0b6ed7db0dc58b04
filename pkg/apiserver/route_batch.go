package apiserver

import (
	"net/http"

	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/services"
)

type batchDetectRequest struct {
	Items []detectRequest `json:"items"`
}

type batchDetectResponse struct {
	Results []services.DetectResponse `json:"results"`
	Count   int                       `json:"count"`
}

// handleDetectBatch handles ordered multi-text detection requests.
func (s *DetectionAPIServer) handleDetectBatch(w http.ResponseWriter, r *http.Request) {
	requestID := ensureRequestID(w, r)

	var req batchDetectRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if len(req.Items) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "items must not be empty")
		return
	}

	reqs := make([]services.DetectRequest, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = s.toServiceRequest(item)
	}

	results, err := s.detectionSvc.DetectBatch(r.Context(), reqs)
	if err != nil {
		logging.Warnf("batch request %s failed: %v", requestID, err)
		s.writeDetectionError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, batchDetectResponse{
		Results: results,
		Count:   len(results),
	})
}
