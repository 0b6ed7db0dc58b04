package segment

import (
	"sort"

	"github.com/abadojack/whatlanggo"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
)

// Segmenter partitions normalized text into language-homogeneous segments.
// Non-Latin scripts map deterministically to a language; Latin runs are
// sub-segmented word by word using marker dictionaries with whatlanggo as
// the statistical fallback.
type Segmenter struct {
	supported map[string]struct{}
}

// New creates a Segmenter for the given supported language codes.
func New(supported []string) *Segmenter {
	s := &Segmenter{supported: make(map[string]struct{}, len(supported))}
	for _, l := range supported {
		s.supported[l] = struct{}{}
	}
	return s
}

type run struct {
	span  detection.Span
	class scriptClass
}

// Segment splits the normalized text into segments and tags each with a
// language code and confidence. Spans are in normalized coordinates.
func (s *Segmenter) Segment(res *normalize.Result, hints []string) []detection.LanguageSegment {
	runes := res.Runes()
	if len(runes) == 0 {
		return nil
	}

	runs := buildRuns(runes)

	var segs []detection.LanguageSegment
	for _, r := range runs {
		text := string(runes[r.span.Start:r.span.End])
		if r.class == classLatin {
			segs = append(segs, s.segmentLatin(runes, r.span, hints)...)
			continue
		}
		lang, conf := s.resolveScriptLanguage(r.class, text, hints)
		segs = append(segs, detection.LanguageSegment{
			Span:       r.span,
			Language:   lang,
			Confidence: conf,
		})
	}
	return segs
}

// buildRuns produces maximal runs of a single script class. Neutral runes
// (whitespace, punctuation, digits) attach to the preceding run.
func buildRuns(runes []rune) []run {
	var runs []run
	cur := run{class: classNeutral}
	started := false

	for i, r := range runes {
		c := classOf(r)
		if c == classNeutral {
			if started {
				cur.span.End = i + 1
			}
			continue
		}
		if !started {
			cur = run{span: detection.Span{Start: i, End: i + 1}, class: c}
			started = true
			continue
		}
		if c == cur.class {
			cur.span.End = i + 1
			continue
		}
		runs = append(runs, cur)
		cur = run{span: detection.Span{Start: i, End: i + 1}, class: c}
	}
	if started {
		runs = append(runs, cur)
	}
	return runs
}

// resolveScriptLanguage maps a non-Latin script run to a language code.
// Arabic script is shared (Urdu, Arabic, Persian) and needs the hint set or
// the statistical detector to pick among them.
func (s *Segmenter) resolveScriptLanguage(c scriptClass, text string, hints []string) (string, float64) {
	if c != classArabic {
		return c.defaultLanguage(), 0.95
	}

	arabicScript := map[string]struct{}{"ur": {}, "ar": {}, "fa": {}}
	var candidates []string
	for _, h := range hints {
		if _, ok := arabicScript[h]; ok {
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], 0.9
	}

	info := whatlanggo.Detect(text)
	if code := info.Lang.Iso6391(); code != "" && info.IsReliable() {
		if _, ok := arabicScript[code]; ok {
			return code, info.Confidence
		}
	}
	return "ur", 0.6
}

type word struct {
	span detection.Span
	lang string // "" when no dictionary classified it
}

// segmentLatin sub-segments a Latin run at word boundaries, classifying each
// word as English or a romanized language and merging adjacent same-language
// words into one segment.
func (s *Segmenter) segmentLatin(runes []rune, span detection.Span, hints []string) []detection.LanguageSegment {
	words := splitWords(runes, span)
	if len(words) == 0 {
		return nil
	}

	romanCandidates := s.romanizedCandidates(hints)

	// First pass: dictionary classification plus per-language marker counts
	counts := map[string]int{}
	type multi struct {
		idx   int
		langs []string
	}
	var ambiguous []multi
	for i := range words {
		w := string(runes[words[i].span.Start:words[i].span.End])
		var matches []string
		if _, ok := englishWords[w]; ok {
			matches = append(matches, "en")
		}
		for _, lang := range romanCandidates {
			if _, ok := romanizedWords[lang][w]; ok {
				matches = append(matches, lang)
			}
		}
		switch len(matches) {
		case 0:
		case 1:
			words[i].lang = matches[0]
			counts[matches[0]]++
		default:
			ambiguous = append(ambiguous, multi{idx: i, langs: matches})
		}
	}
	// Words in several dictionaries side with the run's dominant language
	for _, m := range ambiguous {
		best := m.langs[0]
		for _, l := range m.langs[1:] {
			if counts[l] > counts[best] {
				best = l
			}
		}
		words[m.idx].lang = best
		counts[best]++
	}

	// Unclassified words: inherit the neighboring language, falling back to
	// the statistical detector over the whole run
	fallback := s.statisticalFallback(string(runes[span.Start:span.End]))
	classified := 0
	prev := ""
	for i := range words {
		if words[i].lang != "" {
			classified++
			prev = words[i].lang
			continue
		}
		if prev != "" {
			words[i].lang = prev
		} else {
			words[i].lang = fallback
		}
	}

	conf := 0.5 + 0.45*float64(classified)/float64(len(words))

	// Merge adjacent same-language words
	var segs []detection.LanguageSegment
	cur := detection.LanguageSegment{Span: words[0].span, Language: words[0].lang, Confidence: conf}
	for _, w := range words[1:] {
		if w.lang == cur.Language {
			cur.Span.End = w.span.End
			continue
		}
		segs = append(segs, cur)
		cur = detection.LanguageSegment{Span: w.span, Language: w.lang, Confidence: conf}
	}
	segs = append(segs, cur)
	return segs
}

// romanizedCandidates restricts romanized-language candidates to the hint
// set when one is supplied.
func (s *Segmenter) romanizedCandidates(hints []string) []string {
	all := []string{"hi", "ur", "bn", "ta", "te"}
	if len(hints) == 0 {
		return all
	}
	var out []string
	for _, l := range all {
		for _, h := range hints {
			if h == l {
				out = append(out, l)
				break
			}
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func (s *Segmenter) statisticalFallback(text string) string {
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" || !info.IsReliable() {
		return "en"
	}
	if _, ok := s.supported[code]; !ok {
		return "en"
	}
	return code
}

func splitWords(runes []rune, span detection.Span) []word {
	var words []word
	start := -1
	for i := span.Start; i < span.End; i++ {
		if normalize.IsWordRune(runes[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, word{span: detection.Span{Start: start, End: i}})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{span: detection.Span{Start: start, End: span.End}})
	}
	return words
}

// DetectedLanguages returns the distinct segment languages ordered by total
// character coverage descending, ties broken by first appearance.
func DetectedLanguages(segs []detection.LanguageSegment) []string {
	coverage := map[string]int{}
	firstSeen := map[string]int{}
	var order []string
	for i, seg := range segs {
		if _, ok := coverage[seg.Language]; !ok {
			firstSeen[seg.Language] = i
			order = append(order, seg.Language)
		}
		coverage[seg.Language] += seg.Span.Len()
	}
	sort.SliceStable(order, func(a, b int) bool {
		if coverage[order[a]] != coverage[order[b]] {
			return coverage[order[a]] > coverage[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})
	return order
}
