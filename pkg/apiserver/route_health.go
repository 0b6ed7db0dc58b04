package apiserver

import (
	"net/http"
)

// handleHealth reports service and component status.
func (s *DetectionAPIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := s.detectionSvc.CheckHealth(r.Context())
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "detection-api",
		"components": components,
	})
}
