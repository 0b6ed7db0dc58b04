package lexicon

import (
	"sort"
	"unicode"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// Matcher scans segments against a lexicon snapshot. It is cheap to build
// per request; the snapshot it holds never mutates.
type Matcher struct {
	lex      *Lexicon
	maxEdit  int
	minFuzzy int
}

// NewMatcher creates a Matcher over a snapshot with the given fuzzy bounds.
func NewMatcher(lex *Lexicon, maxEdit, minFuzzy int) *Matcher {
	return &Matcher{lex: lex, maxEdit: maxEdit, minFuzzy: minFuzzy}
}

// Match runs all three tiers over every segment and returns candidate
// detections in normalized coordinates, overlaps already resolved per
// segment (highest severity wins, leftmost-longest tie-break).
func (m *Matcher) Match(res *normalize.Result, segs []detection.LanguageSegment) []detection.Detection {
	runes := res.Runes()
	var out []detection.Detection
	for _, seg := range segs {
		cands := m.matchSegment(runes, seg)
		out = append(out, resolveOverlaps(cands)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.Start < out[j].Span.Start })
	return out
}

// matchSegment collects candidates from the segment's own lexicon plus the
// English lexicon as a universal fallback for Latin-script segments.
func (m *Matcher) matchSegment(runes []rune, seg detection.LanguageSegment) []detection.Detection {
	segRunes := runes[seg.Span.Start:seg.Span.End]

	langs := []string{seg.Language}
	if seg.Language != "en" && hasLatin(segRunes) {
		langs = append(langs, "en")
	}

	folded, foldIdx := normalize.FoldRunes(segRunes)
	letters, letterIdx := lettersOnly(folded)

	var cands []detection.Detection
	seen := map[detection.Span]string{}

	record := func(span detection.Span, e *Entry) {
		abs := detection.Span{Start: seg.Span.Start + span.Start, End: seg.Span.Start + span.End}
		if term, dup := seen[abs]; dup && term == e.Term {
			return
		}
		seen[abs] = e.Term
		cands = append(cands, detection.Detection{
			Span:        abs,
			Category:    e.Category,
			Severity:    e.Severity,
			Source:      detection.SourceLexicon,
			MatchedTerm: e.Term,
			Language:    e.Language,
		})
		metrics.LexiconMatches.WithLabelValues(e.Language, string(e.Category)).Inc()
	}

	for _, lang := range langs {
		entries := m.lex.Entries(lang)
		for i := range entries {
			e := &entries[i]

			// Tier 1: exact term in the normalized text
			for _, span := range findAll(segRunes, e.termRunes) {
				record(span, e)
			}
			if e.Mode == MatchExact {
				continue
			}

			// Tier 2: folded term in the folded text
			for _, fspan := range findAll(folded, e.foldedRunes) {
				record(unfold(fspan, foldIdx, len(segRunes)), e)
			}
			if e.Mode == MatchNormalized {
				continue
			}

			// Tier 3a: the term with punctuation inserted between letters
			// ("s.t.u.p.i.d"). Search the letters-only projection and keep
			// only matches whose folded region actually contains a
			// non-letter, so plain matches stay with tier 2.
			for _, ls := range findLoose(letters, e.foldedRunes) {
				fspan := detection.Span{Start: letterIdx[ls.Start], End: letterIdx[ls.End-1] + 1}
				if !containsNonLetter(folded[fspan.Start:fspan.End]) {
					continue
				}
				record(unfold(fspan, foldIdx, len(segRunes)), e)
			}

			// Tier 3b: bounded edit distance against folded tokens
			if len(e.foldedRunes) < m.minFuzzy || m.maxEdit == 0 {
				continue
			}
			for _, tok := range tokens(folded) {
				word := folded[tok.Start:tok.End]
				if abs(len(word)-len(e.foldedRunes)) > m.maxEdit {
					continue
				}
				if runesEqual(word, e.foldedRunes) {
					continue // already found by tier 2
				}
				if editDistance(word, e.foldedRunes, m.maxEdit) <= m.maxEdit {
					record(unfold(tok, foldIdx, len(segRunes)), e)
				}
			}
		}
	}
	return cands
}

// resolveOverlaps keeps only the highest-severity candidate per overlapping
// region, breaking ties leftmost then longest.
func resolveOverlaps(cands []detection.Detection) []detection.Detection {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Severity != cands[j].Severity {
			return cands[i].Severity > cands[j].Severity
		}
		if cands[i].Span.Start != cands[j].Span.Start {
			return cands[i].Span.Start < cands[j].Span.Start
		}
		return cands[i].Span.Len() > cands[j].Span.Len()
	})
	var kept []detection.Detection
	for _, c := range cands {
		overlap := false
		for _, k := range kept {
			if c.Span.Overlaps(k.Span) {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, c)
		}
	}
	return kept
}

// findAll returns every word-bounded occurrence of needle in haystack.
func findAll(haystack, needle []rune) []detection.Span {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var spans []detection.Span
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if !runesEqual(haystack[i:i+len(needle)], needle) {
			continue
		}
		if i > 0 && normalize.IsWordRune(haystack[i-1]) {
			continue
		}
		if end := i + len(needle); end < len(haystack) && normalize.IsWordRune(haystack[end]) {
			continue
		}
		spans = append(spans, detection.Span{Start: i, End: i + len(needle)})
	}
	return spans
}

// unfold maps a span in folded coordinates back to segment coordinates.
// The end offset uses the next folded rune's source index so collapsed
// repeat-runs stay fully covered by the reported span.
func unfold(s detection.Span, foldIdx []int, segLen int) detection.Span {
	if len(foldIdx) == 0 || s.Start >= s.End {
		return s
	}
	start := foldIdx[s.Start]
	end := segLen
	if s.End < len(foldIdx) {
		end = foldIdx[s.End]
	}
	return detection.Span{Start: start, End: end}
}

// findLoose returns every occurrence of needle in haystack with no word
// boundary requirement. Used on the letters-only projection where all
// boundaries have been removed.
func findLoose(haystack, needle []rune) []detection.Span {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}
	var spans []detection.Span
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			spans = append(spans, detection.Span{Start: i, End: i + len(needle)})
		}
	}
	return spans
}

// lettersOnly projects a rune slice onto its word runes, keeping an index map.
func lettersOnly(runes []rune) ([]rune, []int) {
	out := make([]rune, 0, len(runes))
	idx := make([]int, 0, len(runes))
	for i, r := range runes {
		if normalize.IsWordRune(r) {
			out = append(out, r)
			idx = append(idx, i)
		}
	}
	return out, idx
}

func containsNonLetter(runes []rune) bool {
	for _, r := range runes {
		if !normalize.IsWordRune(r) {
			return true
		}
	}
	return false
}

// tokens returns word-rune runs of a rune slice as spans.
func tokens(runes []rune) []detection.Span {
	var out []detection.Span
	start := -1
	for i, r := range runes {
		if normalize.IsWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, detection.Span{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, detection.Span{Start: start, End: len(runes)})
	}
	return out
}

// editDistance computes Levenshtein distance with substitutions, bounded by
// max: any value above max is reported as max+1.
func editDistance(a, b []rune, max int) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		cur[0] = j
		rowMin := cur[0]
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[i] = min3(prev[i]+1, cur[i-1]+1, prev[i-1]+cost)
			if cur[i] < rowMin {
				rowMin = cur[i]
			}
		}
		if rowMin > max {
			return max + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasLatin(runes []rune) bool {
	for _, r := range runes {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
