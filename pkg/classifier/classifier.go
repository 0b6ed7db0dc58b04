package classifier

import (
	"context"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
)

// Request is one text submitted for external ML scoring. Texts are already
// normalized by the pipeline before they reach the classifier.
type Request struct {
	Text          string   `json:"text"`
	LanguageHints []string `json:"language_hints,omitempty"`
}

// SpanScore is an optional per-span severity from the scoring service, in
// normalized-text rune offsets.
type SpanScore struct {
	Span     detection.Span     `json:"span"`
	Severity float64            `json:"severity"`
	Category detection.Category `json:"category"`
}

// Score is the per-text result. Severity is the whole-text score; Spans may
// be empty when the service only scores at text granularity.
type Score struct {
	Severity float64     `json:"severity"`
	Spans    []SpanScore `json:"spans,omitempty"`
}

// Classifier scores a batch of texts with an external ML service. The
// returned slice preserves input order and has exactly one Score per
// request. Errors are either detection.ErrClassifierTimeout (transient, the
// caller degrades to lexicon-only scoring) or *detection.ClassifierFatalError
// (propagated, the whole request fails).
type Classifier interface {
	Classify(ctx context.Context, batch []Request) ([]Score, error)
}
