package apiserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/services"
)

// DetectionAPIServer exposes the detection service over HTTP.
type DetectionAPIServer struct {
	detectionSvc *services.DetectionService
}

// NewServer wraps a detection service.
func NewServer(svc *services.DetectionService) *DetectionAPIServer {
	return &DetectionAPIServer{detectionSvc: svc}
}

// Init starts the API server on the given port, blocking until it exits.
func Init(port int) error {
	svc := initDetection(5, 500*time.Millisecond)
	if svc == nil {
		return fmt.Errorf("detection service not initialized")
	}

	apiServer := NewServer(svc)
	mux := apiServer.setupRoutes()
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.Infof("Detection API server listening on port %d", port)
	return server.ListenAndServe()
}

// initDetection waits for the global detection service with retry logic.
func initDetection(maxRetries int, retryInterval time.Duration) *services.DetectionService {
	for i := 0; i < maxRetries; i++ {
		if svc := services.GetGlobalDetectionService(); svc != nil {
			return svc
		}
		if i < maxRetries-1 {
			logging.Infof("Global detection service not ready, retrying in %v (attempt %d/%d)", retryInterval, i+1, maxRetries)
			time.Sleep(retryInterval)
		}
	}

	logging.Warnf("Failed to find global detection service after %d attempts", maxRetries)
	return nil
}

// setupRoutes configures all API routes
func (s *DetectionAPIServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Detection endpoints
	mux.HandleFunc("POST /api/v1/detect", s.handleDetect)
	mux.HandleFunc("POST /api/v1/detect/batch", s.handleDetectBatch)

	// Information endpoints
	mux.HandleFunc("GET /api/v1/languages", s.handleLanguages)

	// Metrics endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// ensureRequestID echoes the caller's X-Request-ID or assigns a fresh one,
// so every detection can be correlated across logs.
func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	return id
}

// Helper methods for JSON handling
func (s *DetectionAPIServer) parseJSONRequest(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

func (s *DetectionAPIServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *DetectionAPIServer) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":      errorCode,
			"message":   message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.writeJSONResponse(w, statusCode, errorResponse)
}
