package apiserver

import (
	"net/http"
)

// handleLanguages lists the language codes the service accepts hints for.
func (s *DetectionAPIServer) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"supported_languages": s.detectionSvc.SupportedLanguages(),
	})
}
