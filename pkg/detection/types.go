package detection

// Span is a half-open [Start, End) range of rune offsets into the original
// request text. Highlights always refer to original coordinates, not the
// normalized form.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether two spans share at least one rune.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

// Category identifies the kind of abuse a lexicon entry or detection covers.
type Category string

const (
	CategoryHateSpeech    Category = "hate_speech"
	CategoryProfanity     Category = "profanity"
	CategoryHarassment    Category = "harassment"
	CategoryThreat        Category = "threat"
	CategorySexualContent Category = "sexual_content"
	CategorySpam          Category = "spam"
	CategoryClean         Category = "clean"
)

// BaseSeverity returns the default severity for a category, used when a
// lexicon row omits an explicit severity.
func (c Category) BaseSeverity() float64 {
	switch c {
	case CategoryProfanity:
		return 0.6
	case CategoryHateSpeech:
		return 0.9
	case CategoryHarassment:
		return 0.7
	case CategoryThreat:
		return 0.95
	case CategorySexualContent:
		return 0.8
	default:
		return 0.5
	}
}

// Source tags which evidence producer created a Detection.
type Source string

const (
	SourceLexicon         Source = "lexicon"
	SourceML              Source = "ml"
	SourceContextAdjusted Source = "context-adjusted"
)

// Detection is one piece of evidence against a span of the normalized text.
// Several detections may overlap before the combiner merges them.
type Detection struct {
	Span     Span
	Category Category
	Severity float64
	Source   Source

	// MatchedTerm is the lexicon term (or ML span label) that produced the
	// detection, kept for highlight auditability.
	MatchedTerm string

	// Language is the segment language the match came from.
	Language string

	// AppliedRules lists the context rules that have fired on this
	// detection, in application order.
	AppliedRules []string
}

// RuleApplied reports whether the named context rule already fired.
func (d *Detection) RuleApplied(name string) bool {
	for _, r := range d.AppliedRules {
		if r == name {
			return true
		}
	}
	return false
}

// LanguageSegment is a maximal run of text attributed to a single language.
// Spans are in normalized-text coordinates.
type LanguageSegment struct {
	Span       Span
	Language   string
	Confidence float64
}

// Highlight is a merged output span in original-text coordinates.
type Highlight struct {
	Start       int      `json:"start"`
	End         int      `json:"end"`
	Severity    float64  `json:"severity"`
	Type        Category `json:"type"`
	MatchedTerm string   `json:"matched_term"`
}

// EnsembleResult is the immutable output of the combination stage.
type EnsembleResult struct {
	SeverityScore     float64     `json:"severity_score"`
	Confidence        float64     `json:"confidence"`
	Labels            []Category  `json:"labels"`
	Highlights        []Highlight `json:"highlights"`
	DetectedLanguages []string    `json:"detected_languages"`
}

// Decision is the final categorical verdict.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionFlag  Decision = "flag"
	DecisionBlock Decision = "block"
)

// Thresholds maps a severity score onto a decision. Invariant:
// 0 <= AllowBelow <= BlockAtOrAbove <= 1.
type Thresholds struct {
	AllowBelow     float64
	BlockAtOrAbove float64
}

// Validate checks the threshold invariant.
func (t Thresholds) Validate() error {
	if t.AllowBelow < 0 || t.AllowBelow > 1 ||
		t.BlockAtOrAbove < 0 || t.BlockAtOrAbove > 1 ||
		t.AllowBelow > t.BlockAtOrAbove {
		return &InvalidThresholdError{AllowBelow: t.AllowBelow, BlockAtOrAbove: t.BlockAtOrAbove}
	}
	return nil
}

// Clamp01 bounds a score to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
