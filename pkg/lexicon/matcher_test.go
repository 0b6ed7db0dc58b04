package lexicon

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
	"github.com/asy251189/HarmonyGuard/pkg/segment"
)

var testLangs = []string{"en", "hi", "bn", "ta", "te", "kn", "ml", "gu", "pa", "or", "ur"}

func matchText(t *testing.T, text string) (*normalize.Result, []detection.Detection) {
	t.Helper()
	n := normalize.New(10000)
	res, err := n.Normalize(text)
	Expect(err).NotTo(HaveOccurred())
	segs := segment.New(testLangs).Segment(res, nil)
	m := NewMatcher(Builtin(), 1, 5)
	return res, m.Match(res, segs)
}

func terms(dets []detection.Detection) []string {
	var out []string
	for _, d := range dets {
		out = append(out, d.MatchedTerm)
	}
	return out
}

func TestMatcher(t *testing.T) {
	RegisterTestingT(t)

	t.Run("clean text has no matches", func(t *testing.T) {
		_, dets := matchText(t, "Hello, how are you doing today?")
		Expect(dets).To(BeEmpty())
	})

	t.Run("exact matches at word boundaries", func(t *testing.T) {
		res, dets := matchText(t, "You are such an idiot and stupid person")
		Expect(terms(dets)).To(ConsistOf("idiot", "stupid"))
		for _, d := range dets {
			Expect(d.Source).To(Equal(detection.SourceLexicon))
			Expect(d.Category).To(Equal(detection.CategoryHarassment))
			got := string(res.Runes()[d.Span.Start:d.Span.End])
			Expect(got).To(Equal(d.MatchedTerm))
		}
	})

	t.Run("no match inside larger words", func(t *testing.T) {
		// "hell" must not fire inside "hello"
		_, dets := matchText(t, "hello there shell station")
		Expect(dets).To(BeEmpty())
	})

	t.Run("repeated characters are caught by the normalized tier", func(t *testing.T) {
		_, dets := matchText(t, "you are stuuuupid")
		Expect(terms(dets)).To(ContainElement("stupid"))
	})

	t.Run("leet obfuscation is caught", func(t *testing.T) {
		_, dets := matchText(t, "what a stup1d thing")
		Expect(terms(dets)).To(ContainElement("stupid"))
	})

	t.Run("inserted punctuation is caught", func(t *testing.T) {
		_, dets := matchText(t, "you s.t.u.p.i.d fool")
		Expect(terms(dets)).To(ContainElement("stupid"))
	})

	t.Run("single substitution within the edit bound", func(t *testing.T) {
		_, dets := matchText(t, "total stupyd behaviour")
		Expect(terms(dets)).To(ContainElement("stupid"))
	})

	t.Run("devanagari lexicon matches", func(t *testing.T) {
		_, dets := matchText(t, "तुम बेवकूफ हो")
		Expect(terms(dets)).To(ContainElement("बेवकूफ"))
	})

	t.Run("english fallback applies to romanized segments", func(t *testing.T) {
		// Segment classifies as hi; "stupid" still matches via the en lexicon
		_, dets := matchText(t, "tum stupid ho yaar")
		Expect(terms(dets)).To(ContainElement("stupid"))
	})

	t.Run("overlapping matches keep the highest severity", func(t *testing.T) {
		lex := &Lexicon{byLang: map[string][]Entry{"en": {
			mkEntry("kill yourself", "en", detection.CategoryThreat, 0.95, MatchNormalized),
			mkEntry("kill", "en", detection.CategoryHateSpeech, 0.9, MatchNormalized),
		}}}
		n := normalize.New(10000)
		res, err := n.Normalize("go kill yourself now")
		Expect(err).NotTo(HaveOccurred())
		segs := segment.New(testLangs).Segment(res, nil)
		dets := NewMatcher(lex, 1, 5).Match(res, segs)
		Expect(dets).To(HaveLen(1))
		Expect(dets[0].MatchedTerm).To(Equal("kill yourself"))
		Expect(dets[0].Severity).To(Equal(0.95))
	})

	t.Run("detections are ordered by start offset", func(t *testing.T) {
		_, dets := matchText(t, "stupid and idiot and stupid")
		for i := 1; i < len(dets); i++ {
			Expect(dets[i].Span.Start).To(BeNumerically(">", dets[i-1].Span.Start))
		}
	})
}

func TestEditDistance(t *testing.T) {
	RegisterTestingT(t)

	Expect(editDistance([]rune("stupid"), []rune("stupid"), 1)).To(Equal(0))
	Expect(editDistance([]rune("stupyd"), []rune("stupid"), 1)).To(Equal(1))
	Expect(editDistance([]rune("stpid"), []rune("stupid"), 1)).To(Equal(1))
	Expect(editDistance([]rune("dog"), []rune("stupid"), 1)).To(BeNumerically(">", 1))
}

func mkEntry(term, lang string, cat detection.Category, sev float64, mode MatchMode) Entry {
	e := Entry{Term: term, Language: lang, Category: cat, Severity: sev, Mode: mode}
	e.prepare()
	return e
}
