package ensemble

import (
	"sort"

	"github.com/asy251189/HarmonyGuard/pkg/classifier"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/normalize"
)

// Confidence levels reported on the combined result. Agreement means the ML
// score and the aggregated lexicon score fall on the same side of the flag
// threshold.
const (
	confidenceAgree       = 0.9
	confidenceDisagree    = 0.6
	confidenceLexiconOnly = 0.75
	confidenceDegraded    = 0.55
)

// Input carries everything the combiner needs for one request.
type Input struct {
	// Detections are the context-adjusted lexicon detections, sorted by
	// start, in normalized coordinates.
	Detections []detection.Detection

	// MLScore is the external classifier's whole-text severity. Valid only
	// when MLAvailable is true.
	MLScore     float64
	MLSpans     []classifier.SpanScore
	MLAvailable bool

	// Degraded marks a classifier that was configured but timed out; the
	// result carries reduced confidence.
	Degraded bool

	Norm              *normalize.Result
	DetectedLanguages []string

	// FlagThreshold is the allow/flag boundary used for the agreement check.
	FlagThreshold float64

	IncludeHighlights bool
}

// Combiner merges lexicon, context and ML evidence into one EnsembleResult.
type Combiner struct {
	labelFloor float64
}

func New(labelFloor float64) *Combiner {
	return &Combiner{labelFloor: labelFloor}
}

// Combine produces the final severity, confidence, labels and highlights.
// Severity is the maximum over all evidence, never an average: one strong
// signal must not be diluted by many weak ones.
func (c *Combiner) Combine(in Input) detection.EnsembleResult {
	dets := in.Detections
	for _, s := range in.MLSpans {
		dets = append(dets, detection.Detection{
			Span:     s.Span,
			Category: s.Category,
			Severity: detection.Clamp01(s.Severity),
			Source:   detection.SourceML,
		})
	}

	lexScore := 0.0
	for _, d := range dets {
		if d.Severity > lexScore {
			lexScore = d.Severity
		}
	}

	severity := lexScore
	if in.MLAvailable && in.MLScore > severity {
		severity = in.MLScore
	}

	res := detection.EnsembleResult{
		SeverityScore:     detection.Clamp01(severity),
		Confidence:        c.confidence(in, lexScore),
		Labels:            c.labels(dets),
		DetectedLanguages: in.DetectedLanguages,
	}
	if in.IncludeHighlights {
		res.Highlights = mergeHighlights(dets, in.Norm)
	}
	return res
}

func (c *Combiner) confidence(in Input, lexScore float64) float64 {
	if !in.MLAvailable {
		if in.Degraded {
			return confidenceDegraded
		}
		return confidenceLexiconOnly
	}
	mlHigh := in.MLScore >= in.FlagThreshold
	lexHigh := lexScore >= in.FlagThreshold
	if mlHigh == lexHigh {
		return confidenceAgree
	}
	return confidenceDisagree
}

// labels collects the categories of all detections at or above the label
// floor, deduplicated in detection order. No qualifying detection means the
// text is labeled clean.
func (c *Combiner) labels(dets []detection.Detection) []detection.Category {
	var out []detection.Category
	seen := map[detection.Category]bool{}
	for _, d := range dets {
		if d.Severity < c.labelFloor || seen[d.Category] {
			continue
		}
		seen[d.Category] = true
		out = append(out, d.Category)
	}
	if len(out) == 0 {
		out = append(out, detection.CategoryClean)
	}
	return out
}

// mergeHighlights maps detection spans back to original coordinates and
// collapses overlapping or adjacent spans of the same category, keeping the
// maximum severity and the matched term that carried it.
func mergeHighlights(dets []detection.Detection, norm *normalize.Result) []detection.Highlight {
	if len(dets) == 0 {
		return nil
	}

	byCategory := map[detection.Category][]detection.Highlight{}
	for _, d := range dets {
		orig := norm.ToOriginal(d.Span)
		if orig.Start >= orig.End {
			continue
		}
		byCategory[d.Category] = append(byCategory[d.Category], detection.Highlight{
			Start:       orig.Start,
			End:         orig.End,
			Severity:    d.Severity,
			Type:        d.Category,
			MatchedTerm: d.MatchedTerm,
		})
	}

	var merged []detection.Highlight
	for _, hs := range byCategory {
		sort.Slice(hs, func(i, j int) bool {
			if hs[i].Start != hs[j].Start {
				return hs[i].Start < hs[j].Start
			}
			return hs[i].End < hs[j].End
		})
		cur := hs[0]
		for _, h := range hs[1:] {
			if h.Start <= cur.End {
				if h.End > cur.End {
					cur.End = h.End
				}
				if h.Severity > cur.Severity {
					cur.Severity = h.Severity
					cur.MatchedTerm = h.MatchedTerm
				}
				continue
			}
			merged = append(merged, cur)
			cur = h
		}
		merged = append(merged, cur)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		if merged[i].End != merged[j].End {
			return merged[i].End < merged[j].End
		}
		return merged[i].Type < merged[j].Type
	})
	return merged
}
