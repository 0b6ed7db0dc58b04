package apiserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/lexicon"
	"github.com/asy251189/HarmonyGuard/pkg/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Enabled = false
	svc, err := services.NewDetectionService(cfg, lexicon.NewStoreWith(lexicon.Builtin()), nil, nil)
	if err != nil {
		t.Fatalf("NewDetectionService: %v", err)
	}
	srv := httptest.NewServer(NewServer(svc).setupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestDetectEndpoint(t *testing.T) {
	RegisterTestingT(t)
	srv := newTestServer(t)

	t.Run("response carries the full field contract", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": "you are stupid"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		for _, field := range []string{
			"severity_score", "decision", "detected_languages", "labels",
			"highlights", "confidence", "processing_time_ms",
		} {
			Expect(body).To(HaveKey(field), field)
		}
		Expect(body["decision"]).To(Equal("flag"))

		highlights := body["highlights"].([]interface{})
		Expect(highlights).To(HaveLen(1))
		h := highlights[0].(map[string]interface{})
		Expect(h).To(HaveKey("start"))
		Expect(h).To(HaveKey("end"))
		Expect(h).To(HaveKey("severity"))
		Expect(h).To(HaveKey("type"))
		Expect(h["matched_term"]).To(Equal("stupid"))
	})

	t.Run("clean text allows", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": "Hello, how are you doing today?"}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["decision"]).To(Equal("allow"))
	})

	t.Run("include_highlights false omits highlights", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": "you are stupid", "include_highlights": false}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["highlights"]).To(BeNil())
	})

	t.Run("threshold override changes the decision", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": "you are stupid", "threshold": 0.1, "block_threshold": 0.2}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["decision"]).To(Equal("block"))
	})

	t.Run("empty text is a 400", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": ""}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		errObj := body["error"].(map[string]interface{})
		Expect(errObj["code"]).To(Equal("INVALID_INPUT"))
	})

	t.Run("out-of-range threshold is a 400", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect", `{"text": "hello", "threshold": 1.4}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		errObj := body["error"].(map[string]interface{})
		Expect(errObj["code"]).To(Equal("INVALID_THRESHOLD"))
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		resp, _ := postJSON(t, srv.URL+"/api/v1/detect", `{"text": `)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
}

func TestBatchEndpoint(t *testing.T) {
	RegisterTestingT(t)
	srv := newTestServer(t)

	t.Run("ordered results for every item", func(t *testing.T) {
		resp, body := postJSON(t, srv.URL+"/api/v1/detect/batch",
			`{"items": [{"text": "you are stupid"}, {"text": "lovely weather"}]}`)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["count"]).To(BeEquivalentTo(2))
		results := body["results"].([]interface{})
		Expect(results[0].(map[string]interface{})["decision"]).To(Equal("flag"))
		Expect(results[1].(map[string]interface{})["decision"]).To(Equal("allow"))
	})

	t.Run("oversized batch is a 413", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`{"items": [`)
		for i := 0; i < 101; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"text": "hello"}`)
		}
		sb.WriteString(`]}`)

		resp, body := postJSON(t, srv.URL+"/api/v1/detect/batch", sb.String())
		Expect(resp.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))
		errObj := body["error"].(map[string]interface{})
		Expect(errObj["code"]).To(Equal("BATCH_TOO_LARGE"))
	})

	t.Run("empty batch is a 400", func(t *testing.T) {
		resp, _ := postJSON(t, srv.URL+"/api/v1/detect/batch", `{"items": []}`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
}

func TestInfoEndpoints(t *testing.T) {
	RegisterTestingT(t)
	srv := newTestServer(t)

	t.Run("health reports components", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body["status"]).To(Equal("healthy"))
		Expect(body["components"]).To(HaveKey("lexicon"))
	})

	t.Run("languages lists supported codes", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/languages")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		var body map[string][]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body["supported_languages"]).To(ContainElements("en", "hi", "ta"))
	})

	t.Run("metrics endpoint serves prometheus text", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})
}
