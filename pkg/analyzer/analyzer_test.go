package analyzer

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
)

// detectionsFor builds lexicon-style detections for every occurrence of the
// given terms, so rule behavior can be tested without a real matcher.
func detectionsFor(res *normalize.Result, severity float64, terms ...string) []detection.Detection {
	text := res.Text()
	var dets []detection.Detection
	for _, term := range terms {
		idx := strings.Index(text, term)
		if idx < 0 {
			continue
		}
		start := len([]rune(text[:idx]))
		dets = append(dets, detection.Detection{
			Span:        detection.Span{Start: start, End: start + len([]rune(term))},
			Category:    detection.CategoryHarassment,
			Severity:    severity,
			Source:      detection.SourceLexicon,
			MatchedTerm: term,
		})
	}
	return dets
}

func analyze(t *testing.T, text string, severity float64, terms ...string) []detection.Detection {
	t.Helper()
	res, err := normalize.New(10000).Normalize(text)
	Expect(err).NotTo(HaveOccurred())
	dets := detectionsFor(res, severity, terms...)
	return New(config.Default().Analyzer).Apply(res, dets)
}

func maxSeverity(dets []detection.Detection) float64 {
	max := 0.0
	for _, d := range dets {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}

func TestNegationRule(t *testing.T) {
	RegisterTestingT(t)

	t.Run("negation dampens but does not zero", func(t *testing.T) {
		negated := analyze(t, "I am not stupid or an idiot", 0.7, "stupid", "idiot")
		plain := analyze(t, "I am stupid and an idiot", 0.7, "stupid", "idiot")
		Expect(maxSeverity(negated)).To(BeNumerically("<", maxSeverity(plain)))
		Expect(maxSeverity(negated)).To(BeNumerically(">", 0))
	})

	t.Run("negation scope ends at clause punctuation", func(t *testing.T) {
		dets := analyze(t, "not him, you stupid fool", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleNegation)).To(BeFalse())
	})

	t.Run("negation scope ends at but", func(t *testing.T) {
		dets := analyze(t, "maybe not but you are stupid", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleNegation)).To(BeFalse())
	})

	t.Run("out-of-window negation does not fire", func(t *testing.T) {
		dets := analyze(t, "not that it matters because you are clearly very stupid", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleNegation)).To(BeFalse())
	})

	t.Run("hindi negation marker fires", func(t *testing.T) {
		dets := analyze(t, "तुम नहीं बेवकूफ हो", 0.7, "बेवकूफ")
		Expect(dets).To(HaveLen(1))
		Expect(dets[0].RuleApplied(RuleNegation)).To(BeTrue())
	})

	t.Run("severity never drops below the floor", func(t *testing.T) {
		dets := analyze(t, "that is not stupid", 0.1, "stupid")
		Expect(dets[0].Severity).To(BeNumerically(">=", config.Default().Analyzer.NegationFloor))
	})
}

func TestQuotationRule(t *testing.T) {
	RegisterTestingT(t)

	t.Run("quoted detection is dampened", func(t *testing.T) {
		dets := analyze(t, `he called me "stupid" yesterday`, 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleQuotation)).To(BeTrue())
		Expect(dets[0].Severity).To(BeNumerically("~", 0.35, 0.001))
		Expect(dets[0].Source).To(Equal(detection.SourceContextAdjusted))
	})

	t.Run("reported speech after a colon is dampened", func(t *testing.T) {
		dets := analyze(t, "he said: you are stupid", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleQuotation)).To(BeTrue())
	})

	t.Run("unquoted detection is untouched", func(t *testing.T) {
		dets := analyze(t, "you are stupid", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleQuotation)).To(BeFalse())
		Expect(dets[0].Severity).To(Equal(0.7))
		Expect(dets[0].Source).To(Equal(detection.SourceLexicon))
	})
}

func TestSelfReferenceRule(t *testing.T) {
	RegisterTestingT(t)

	t.Run("first-person subject is dampened moderately", func(t *testing.T) {
		self := analyze(t, "I am stupid", 0.7, "stupid")
		other := analyze(t, "You are stupid", 0.7, "stupid")
		Expect(self[0].RuleApplied(RuleSelfReference)).To(BeTrue())
		Expect(other[0].RuleApplied(RuleSelfReference)).To(BeFalse())
		Expect(self[0].Severity).To(BeNumerically("<", other[0].Severity))
	})
}

func TestInterrogativeRule(t *testing.T) {
	RegisterTestingT(t)

	t.Run("genuine question gets a small dampening", func(t *testing.T) {
		q := analyze(t, "why are you so stupid?", 0.7, "stupid")
		Expect(q[0].RuleApplied(RuleInterrogative)).To(BeTrue())
		// Small dampening, not suppression
		Expect(q[0].Severity).To(BeNumerically(">", 0.5))
	})

	t.Run("question mark without interrogative marker does not fire", func(t *testing.T) {
		dets := analyze(t, "you stupid fool?", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleInterrogative)).To(BeFalse())
	})

	t.Run("statement does not fire", func(t *testing.T) {
		dets := analyze(t, "you are stupid.", 0.7, "stupid")
		Expect(dets[0].RuleApplied(RuleInterrogative)).To(BeFalse())
	})
}

func TestRulesCompose(t *testing.T) {
	RegisterTestingT(t)

	t.Run("rules are multiplicative and all recorded", func(t *testing.T) {
		dets := analyze(t, `am I not "stupid"?`, 0.8, "stupid")
		Expect(dets).To(HaveLen(1))
		d := dets[0]
		Expect(d.RuleApplied(RuleQuotation)).To(BeTrue())
		Expect(d.RuleApplied(RuleNegation)).To(BeTrue())
		Expect(d.RuleApplied(RuleSelfReference)).To(BeTrue())
		Expect(d.RuleApplied(RuleInterrogative)).To(BeTrue())
		// 0.8 * 0.5 * 0.3 * 0.7 * 0.8
		Expect(d.Severity).To(BeNumerically("~", 0.0672, 0.001))
	})

	t.Run("applying the analyzer twice changes nothing", func(t *testing.T) {
		res, err := normalize.New(10000).Normalize("I am not stupid")
		Expect(err).NotTo(HaveOccurred())
		a := New(config.Default().Analyzer)
		dets := a.Apply(res, detectionsFor(res, 0.7, "stupid"))
		first := dets[0].Severity
		dets = a.Apply(res, dets)
		Expect(dets[0].Severity).To(Equal(first))
	})
}
