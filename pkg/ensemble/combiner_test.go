package ensemble

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/asy251189/HarmonyGuard/pkg/classifier"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
)

func normResult(t *testing.T, text string) *normalize.Result {
	t.Helper()
	res, err := normalize.New(10000).Normalize(text)
	if err != nil {
		t.Fatalf("normalize %q: %v", text, err)
	}
	return res
}

func lexDet(span detection.Span, cat detection.Category, sev float64, term string) detection.Detection {
	return detection.Detection{
		Span:        span,
		Category:    cat,
		Severity:    sev,
		Source:      detection.SourceLexicon,
		MatchedTerm: term,
	}
}

func TestCombineSeverity(t *testing.T) {
	RegisterTestingT(t)
	c := New(0.1)

	t.Run("final score is the max of ML and lexicon", func(t *testing.T) {
		norm := normResult(t, "you are stupid")
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 8, End: 14}, detection.CategoryHarassment, 0.7, "stupid"),
			},
			MLScore:       0.4,
			MLAvailable:   true,
			Norm:          norm,
			FlagThreshold: 0.5,
		}
		Expect(c.Combine(in).SeverityScore).To(Equal(0.7))

		in.MLScore = 0.95
		Expect(c.Combine(in).SeverityScore).To(Equal(0.95))
	})

	t.Run("raising one detection never lowers the final score", func(t *testing.T) {
		norm := normResult(t, "stupid idiot text")
		base := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 0, End: 6}, detection.CategoryHarassment, 0.3, "stupid"),
				lexDet(detection.Span{Start: 7, End: 12}, detection.CategoryHarassment, 0.5, "idiot"),
			},
			MLScore:       0.2,
			MLAvailable:   true,
			Norm:          norm,
			FlagThreshold: 0.5,
		}
		before := c.Combine(base).SeverityScore
		base.Detections[0].Severity = 0.6
		Expect(c.Combine(base).SeverityScore).To(BeNumerically(">=", before))
	})

	t.Run("ML span scores join the evidence pool", func(t *testing.T) {
		norm := normResult(t, "some hateful text")
		in := Input{
			MLScore:     0.3,
			MLAvailable: true,
			MLSpans: []classifier.SpanScore{
				{Span: detection.Span{Start: 5, End: 12}, Severity: 0.85, Category: detection.CategoryHateSpeech},
			},
			Norm:              norm,
			FlagThreshold:     0.5,
			IncludeHighlights: true,
		}
		out := c.Combine(in)
		Expect(out.SeverityScore).To(Equal(0.85))
		Expect(out.Labels).To(ContainElement(detection.CategoryHateSpeech))
		Expect(out.Highlights).To(HaveLen(1))
	})
}

func TestCombineConfidence(t *testing.T) {
	RegisterTestingT(t)
	c := New(0.1)
	norm := normResult(t, "you are stupid")
	det := lexDet(detection.Span{Start: 8, End: 14}, detection.CategoryHarassment, 0.7, "stupid")

	t.Run("agreement gives high confidence", func(t *testing.T) {
		in := Input{Detections: []detection.Detection{det}, MLScore: 0.8, MLAvailable: true, Norm: norm, FlagThreshold: 0.5}
		Expect(c.Combine(in).Confidence).To(Equal(confidenceAgree))
	})

	t.Run("disagreement lowers confidence", func(t *testing.T) {
		in := Input{Detections: []detection.Detection{det}, MLScore: 0.1, MLAvailable: true, Norm: norm, FlagThreshold: 0.5}
		Expect(c.Combine(in).Confidence).To(Equal(confidenceDisagree))
	})

	t.Run("classifier timeout degrades confidence below lexicon-only", func(t *testing.T) {
		lexOnly := Input{Detections: []detection.Detection{det}, Norm: norm, FlagThreshold: 0.5}
		degraded := lexOnly
		degraded.Degraded = true
		Expect(c.Combine(degraded).Confidence).To(BeNumerically("<", c.Combine(lexOnly).Confidence))
	})
}

func TestCombineLabels(t *testing.T) {
	RegisterTestingT(t)
	c := New(0.1)
	norm := normResult(t, "stupid idiot damn")

	t.Run("categories below the floor are dropped", func(t *testing.T) {
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 0, End: 6}, detection.CategoryHarassment, 0.7, "stupid"),
				lexDet(detection.Span{Start: 13, End: 17}, detection.CategoryProfanity, 0.04, "damn"),
			},
			Norm:          norm,
			FlagThreshold: 0.5,
		}
		out := c.Combine(in)
		Expect(out.Labels).To(Equal([]detection.Category{detection.CategoryHarassment}))
	})

	t.Run("duplicate categories collapse", func(t *testing.T) {
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 0, End: 6}, detection.CategoryHarassment, 0.7, "stupid"),
				lexDet(detection.Span{Start: 7, End: 12}, detection.CategoryHarassment, 0.7, "idiot"),
			},
			Norm:          norm,
			FlagThreshold: 0.5,
		}
		Expect(c.Combine(in).Labels).To(HaveLen(1))
	})

	t.Run("no qualifying detection means clean", func(t *testing.T) {
		in := Input{Norm: norm, MLScore: 0.02, MLAvailable: true, FlagThreshold: 0.5}
		Expect(c.Combine(in).Labels).To(Equal([]detection.Category{detection.CategoryClean}))
	})
}

func TestCombineHighlights(t *testing.T) {
	RegisterTestingT(t)
	c := New(0.1)

	t.Run("spans map back to original coordinates", func(t *testing.T) {
		// The zero-width joiner before "stupid" is stripped during
		// normalization, shifting normalized offsets left by one.
		raw := "ab ​stupid"
		norm := normResult(t, raw)
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 3, End: 9}, detection.CategoryHarassment, 0.7, "stupid"),
			},
			Norm:              norm,
			FlagThreshold:     0.5,
			IncludeHighlights: true,
		}
		out := c.Combine(in)
		Expect(out.Highlights).To(HaveLen(1))
		h := out.Highlights[0]
		Expect(string([]rune(raw)[h.Start:h.End])).To(Equal("stupid"))
	})

	t.Run("overlapping same-category spans merge keeping the strongest term", func(t *testing.T) {
		norm := normResult(t, "kill yourself now")
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 0, End: 4}, detection.CategoryThreat, 0.8, "kill"),
				lexDet(detection.Span{Start: 0, End: 13}, detection.CategoryThreat, 0.95, "kill yourself"),
			},
			Norm:              norm,
			FlagThreshold:     0.5,
			IncludeHighlights: true,
		}
		out := c.Combine(in)
		Expect(out.Highlights).To(HaveLen(1))
		Expect(out.Highlights[0].Severity).To(Equal(0.95))
		Expect(out.Highlights[0].MatchedTerm).To(Equal("kill yourself"))
		Expect(out.Highlights[0].Start).To(Equal(0))
		Expect(out.Highlights[0].End).To(Equal(13))
	})

	t.Run("different categories stay separate and sorted", func(t *testing.T) {
		norm := normResult(t, "stupid damn thing")
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 7, End: 11}, detection.CategoryProfanity, 0.6, "damn"),
				lexDet(detection.Span{Start: 0, End: 6}, detection.CategoryHarassment, 0.7, "stupid"),
			},
			Norm:              norm,
			FlagThreshold:     0.5,
			IncludeHighlights: true,
		}
		out := c.Combine(in)
		Expect(out.Highlights).To(HaveLen(2))
		Expect(out.Highlights[0].Start).To(BeNumerically("<", out.Highlights[1].Start))
	})

	t.Run("include_highlights false skips highlight work", func(t *testing.T) {
		norm := normResult(t, "you are stupid")
		in := Input{
			Detections: []detection.Detection{
				lexDet(detection.Span{Start: 8, End: 14}, detection.CategoryHarassment, 0.7, "stupid"),
			},
			Norm:          norm,
			FlagThreshold: 0.5,
		}
		Expect(c.Combine(in).Highlights).To(BeNil())
	})
}
