package normalize

import (
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/asy251189/HarmonyGuard/pkg/detection"
)

// Result is a normalized text together with an index map back to the
// original input. All offsets are rune offsets.
type Result struct {
	runes     []rune
	origIndex []int // per normalized rune, rune index into the original text
	origLen   int
}

// Text returns the normalized text.
func (r *Result) Text() string { return string(r.runes) }

// Runes returns the normalized text as runes. Callers must not mutate.
func (r *Result) Runes() []rune { return r.runes }

// OriginalLen returns the rune length of the original input.
func (r *Result) OriginalLen() int { return r.origLen }

// ToOriginal translates a span in normalized coordinates back to original
// coordinates. The returned span always satisfies 0 <= start < end <= len.
func (r *Result) ToOriginal(s detection.Span) detection.Span {
	if len(r.runes) == 0 || s.Start >= s.End {
		return detection.Span{}
	}
	start := s.Start
	if start < 0 {
		start = 0
	}
	end := s.End
	if end > len(r.runes) {
		end = len(r.runes)
	}
	return detection.Span{
		Start: r.origIndex[start],
		End:   r.origIndex[end-1] + 1,
	}
}

// Normalizer canonicalizes raw input for downstream matching.
type Normalizer struct {
	maxLen int
}

// New creates a Normalizer that rejects input longer than maxLen runes.
func New(maxLen int) *Normalizer {
	return &Normalizer{maxLen: maxLen}
}

// zero-width characters commonly used to split words and evade matching
func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	}
	return false
}

// Normalize canonicalizes text: NFKC decomposition/recomposition, zero-width
// stripping, whitespace collapsing, and per-rune case folding. Only empty or
// oversized input fails; everything else is processed best-effort.
func (n *Normalizer) Normalize(text string) (*Result, error) {
	orig := []rune(text)
	if len(orig) == 0 {
		return nil, &detection.InvalidInputError{Reason: "text is empty"}
	}
	if n.maxLen > 0 && len(orig) > n.maxLen {
		return nil, &detection.InvalidInputError{Reason: "text exceeds maximum length"}
	}

	res := &Result{
		runes:     make([]rune, 0, len(orig)),
		origIndex: make([]int, 0, len(orig)),
		origLen:   len(orig),
	}

	for i, r := range orig {
		if isZeroWidth(r) {
			continue
		}
		if unicode.IsSpace(r) {
			// Collapse whitespace runs into a single space
			if len(res.runes) > 0 && res.runes[len(res.runes)-1] == ' ' {
				continue
			}
			res.runes = append(res.runes, ' ')
			res.origIndex = append(res.origIndex, i)
			continue
		}
		// Per-rune NFKC keeps the offset map exact: every output rune of a
		// decomposition points at the original rune it came from.
		for _, nr := range norm.NFKC.String(string(r)) {
			res.runes = append(res.runes, unicode.ToLower(nr))
			res.origIndex = append(res.origIndex, i)
		}
	}

	// Trim the leading/trailing space the collapsing pass may have left
	if len(res.runes) > 0 && res.runes[0] == ' ' {
		res.runes = res.runes[1:]
		res.origIndex = res.origIndex[1:]
	}
	if len(res.runes) > 0 && res.runes[len(res.runes)-1] == ' ' {
		res.runes = res.runes[:len(res.runes)-1]
		res.origIndex = res.origIndex[:len(res.origIndex)-1]
	}

	return res, nil
}

// IsWordRune reports whether a rune belongs inside a word. Combining and
// spacing marks count: Indic vowel signs are Mn/Mc and splitting on them
// would break words like "बेवकूफ" apart.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// leetMap folds common character substitutions used to obfuscate slurs.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'@': 'a',
	'$': 's',
}

// Fold produces the matching form of a string: diacritics stripped, leet
// substitutions applied, and runs of three or more identical runes collapsed
// to one ("stuuupid" -> "stupid"). Doubled letters are kept since many
// legitimate words contain them.
func Fold(s string) string {
	folded, _ := FoldRunes([]rune(s))
	return string(folded)
}

// FoldRunes folds a rune slice and returns, for every folded rune, the index
// of the source rune it came from. A run collapsed to one rune maps to the
// run's first source rune; callers translating a folded end offset should
// use the NEXT folded rune's source index (or the slice end) so collapsed
// runs stay fully covered.
func FoldRunes(in []rune) ([]rune, []int) {
	// Expand first: decompose so diacritics become strippable combining
	// marks, then leet-substitute and lowercase
	exp := make([]rune, 0, len(in))
	expIdx := make([]int, 0, len(in))
	for i, r := range in {
		for _, dr := range norm.NFD.String(string(r)) {
			if unicode.Is(unicode.Mn, dr) {
				continue
			}
			if sub, ok := leetMap[dr]; ok {
				dr = sub
			}
			exp = append(exp, unicode.ToLower(dr))
			expIdx = append(expIdx, i)
		}
	}

	// Collapse runs of three or more identical runes to a single rune
	out := make([]rune, 0, len(exp))
	idx := make([]int, 0, len(exp))
	for i := 0; i < len(exp); {
		j := i
		for j < len(exp) && exp[j] == exp[i] {
			j++
		}
		n := j - i
		if n >= 3 {
			n = 1
		}
		for k := 0; k < n; k++ {
			out = append(out, exp[i])
			idx = append(idx, expIdx[i+k])
		}
		i = j
	}
	return out, idx
}
