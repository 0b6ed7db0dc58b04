package analyzer

import (
	"unicode"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// Rule names recorded on detections for auditability.
const (
	RuleQuotation     = "quotation"
	RuleNegation      = "negation"
	RuleSelfReference = "self_reference"
	RuleInterrogative = "interrogative"
)

// selfRefWindow is how many tokens a first-person marker may precede a
// detection by and still count as its subject.
const selfRefWindow = 4

// Analyzer applies context rules over the normalized text and the candidate
// detections. Rules run in a fixed priority order (quotation, negation,
// self-reference, interrogative), are independent, multiplicative on
// severity, and idempotent: a rule that already fired on a detection never
// fires twice.
type Analyzer struct {
	cfg config.AnalyzerConfig
}

// New creates an Analyzer with the given multipliers and windows.
func New(cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Apply runs all rules and returns the adjusted detections. The input slice
// is modified in place and returned for composition.
func (a *Analyzer) Apply(res *normalize.Result, dets []detection.Detection) []detection.Detection {
	if len(dets) == 0 {
		return dets
	}
	text := res.Runes()
	ctx := buildTextContext(text)

	for i := range dets {
		a.applyQuotation(ctx, &dets[i])
		a.applyNegation(ctx, &dets[i])
		a.applySelfReference(ctx, &dets[i])
		a.applyInterrogative(ctx, &dets[i])
	}
	return dets
}

// fire multiplies severity, records the rule, and flips the source tag.
func fire(d *detection.Detection, rule string, factor, floor float64) {
	if d.RuleApplied(rule) {
		return
	}
	adjusted := d.Severity * factor
	if floor > 0 && adjusted < floor && d.Severity >= floor {
		adjusted = floor
	}
	d.Severity = adjusted
	d.AppliedRules = append(d.AppliedRules, rule)
	d.Source = detection.SourceContextAdjusted
	metrics.ContextRuleFired.WithLabelValues(rule).Inc()
}

// applyQuotation dampens a detection fully inside quoted or reported
// speech. Reported speech is evidence of lower intent, not proof of safety.
func (a *Analyzer) applyQuotation(ctx *textContext, d *detection.Detection) {
	for _, q := range ctx.quoted {
		if d.Span.Start >= q.Start && d.Span.End <= q.End {
			fire(d, RuleQuotation, a.cfg.QuotationFactor, 0)
			return
		}
	}
}

// applyNegation suppresses severity toward a low floor when the nearest
// preceding negation marker lies within the token window and no clause
// boundary intervenes. Negated abuse still signals hostile framing, hence
// the floor instead of zero.
func (a *Analyzer) applyNegation(ctx *textContext, d *detection.Detection) {
	sent := ctx.sentenceAt(d.Span.Start)
	if sent == nil {
		return
	}
	toks := ctx.tokensBefore(sent, d.Span.Start)
	window := a.cfg.NegationWindow
	for i := len(toks) - 1; i >= 0 && len(toks)-i <= window; i-- {
		w := string(ctx.text[toks[i].Start:toks[i].End])
		if clauseBreakers[w] {
			return
		}
		if negationMarkers[w] {
			if ctx.hasClausePunct(toks[i].End, d.Span.Start) {
				return
			}
			fire(d, RuleNegation, a.cfg.NegationFactor, a.cfg.NegationFloor)
			return
		}
	}
}

// applySelfReference gives a moderate dampening to detections whose subject
// is first-person singular ("I am stupid").
func (a *Analyzer) applySelfReference(ctx *textContext, d *detection.Detection) {
	sent := ctx.sentenceAt(d.Span.Start)
	if sent == nil {
		return
	}
	toks := ctx.tokensBefore(sent, d.Span.Start)
	for i := len(toks) - 1; i >= 0 && len(toks)-i <= selfRefWindow; i-- {
		w := string(ctx.text[toks[i].Start:toks[i].End])
		if selfMarkers[w] {
			fire(d, RuleSelfReference, a.cfg.SelfReferenceFactor, 0)
			return
		}
	}
}

// applyInterrogative slightly dampens detections inside a genuine question:
// the sentence ends with "?" and contains an interrogative marker.
// Rhetorical abuse phrased as a question stays abusive, so the factor is
// small.
func (a *Analyzer) applyInterrogative(ctx *textContext, d *detection.Detection) {
	sent := ctx.sentenceAt(d.Span.Start)
	if sent == nil || !sent.question {
		return
	}
	for _, tok := range sent.tokens {
		if interrogativeMarkers[string(ctx.text[tok.Start:tok.End])] {
			fire(d, RuleInterrogative, a.cfg.InterrogativeFactor, 0)
			return
		}
	}
}

// textContext is the per-request precomputed view the rules share.
type textContext struct {
	text      []rune
	quoted    []detection.Span
	sentences []sentence
}

type sentence struct {
	span     detection.Span
	tokens   []detection.Span
	question bool
}

func (c *textContext) sentenceAt(pos int) *sentence {
	for i := range c.sentences {
		s := &c.sentences[i]
		if pos >= s.span.Start && pos < s.span.End {
			return s
		}
	}
	return nil
}

func (c *textContext) tokensBefore(s *sentence, pos int) []detection.Span {
	var out []detection.Span
	for _, t := range s.tokens {
		if t.End <= pos {
			out = append(out, t)
		}
	}
	return out
}

// hasClausePunct reports whether clause punctuation occurs in (from, to).
func (c *textContext) hasClausePunct(from, to int) bool {
	for i := from; i < to && i < len(c.text); i++ {
		switch c.text[i] {
		case ',', ';', ':', '.', '!', '?', '।': // danda ends a sentence too
			return true
		}
	}
	return false
}

func buildTextContext(text []rune) *textContext {
	ctx := &textContext{text: text}
	ctx.quoted = findQuotedSpans(text)
	ctx.sentences = splitSentences(text)
	return ctx
}

// splitSentences splits on sentence-final punctuation, keeping the
// terminator inside the sentence span.
func splitSentences(text []rune) []sentence {
	var out []sentence
	start := 0
	flush := func(end int) {
		if end <= start {
			return
		}
		s := sentence{span: detection.Span{Start: start, End: end}}
		s.tokens = tokenize(text, s.span)
		for i := end - 1; i >= start; i-- {
			if text[i] == ' ' || isQuoteRune(text[i]) {
				continue
			}
			s.question = text[i] == '?'
			break
		}
		out = append(out, s)
		start = end
	}
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '।' {
			flush(i + 1)
		}
	}
	flush(len(text))
	return out
}

// tokenize returns word spans; apostrophes between letters stay inside the
// word so "don't" survives as one token.
func tokenize(text []rune, span detection.Span) []detection.Span {
	var out []detection.Span
	start := -1
	for i := span.Start; i < span.End; i++ {
		r := text[i]
		isWord := normalize.IsWordRune(r)
		if !isWord && (r == '\'' || r == '’') && start >= 0 &&
			i+1 < span.End && unicode.IsLetter(text[i+1]) {
			isWord = true
		}
		if isWord {
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
		out = append(out, detection.Span{Start: start, End: span.End})
	}
	return out
}

func isQuoteRune(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’', '«', '»':
		return true
	}
	return false
}

// findQuotedSpans pairs quote characters of the same kind and adds
// reported-speech spans introduced by a reporting verb and a colon.
func findQuotedSpans(text []rune) []detection.Span {
	var spans []detection.Span

	pairs := [][2]rune{
		{'"', '"'},
		{'\'', '\''},
		{'“', '”'},
		{'‘', '’'},
		{'«', '»'},
	}
	for _, p := range pairs {
		open := -1
		for i, r := range text {
			if r != p[0] && r != p[1] {
				continue
			}
			if open < 0 && r == p[0] {
				open = i
				continue
			}
			if open >= 0 && r == p[1] {
				spans = append(spans, detection.Span{Start: open + 1, End: i})
				open = -1
			}
		}
	}

	// "he said: you are ..." — everything after the colon up to the
	// sentence end counts as reported speech
	toks := tokenize(text, detection.Span{Start: 0, End: len(text)})
	for _, tok := range toks {
		if !reportingVerbs[string(text[tok.Start:tok.End])] {
			continue
		}
		i := tok.End
		for i < len(text) && text[i] == ' ' {
			i++
		}
		if i >= len(text) || text[i] != ':' {
			continue
		}
		end := len(text)
		for j := i + 1; j < len(text); j++ {
			if text[j] == '.' || text[j] == '!' || text[j] == '?' || text[j] == '।' {
				end = j
				break
			}
		}
		spans = append(spans, detection.Span{Start: i + 1, End: end})
	}
	return spans
}
