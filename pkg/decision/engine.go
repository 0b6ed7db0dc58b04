package decision

import (
	"github.com/asy251189/HarmonyGuard/pkg/detection"
)

// Engine maps a final severity score onto {allow, flag, block} with
// configurable thresholds. Callers may override the defaults per request.
type Engine struct {
	defaults detection.Thresholds
}

// NewEngine validates and stores the default thresholds.
func NewEngine(defaults detection.Thresholds) (*Engine, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &Engine{defaults: defaults}, nil
}

// Defaults returns the engine's configured thresholds.
func (e *Engine) Defaults() detection.Thresholds { return e.defaults }

// Resolve validates a caller override against the threshold invariant and
// returns the thresholds to use for this request. Must run before any
// detection work so invalid thresholds fail fast.
func (e *Engine) Resolve(override *detection.Thresholds) (detection.Thresholds, error) {
	if override == nil {
		return e.defaults, nil
	}
	if err := override.Validate(); err != nil {
		return detection.Thresholds{}, err
	}
	return *override, nil
}

// Decide applies the threshold mapping:
//
//	severity <  AllowBelow      => allow
//	severity >= BlockAtOrAbove  => block
//	otherwise                   => flag
func (e *Engine) Decide(severity float64, t detection.Thresholds) detection.Decision {
	switch {
	case severity < t.AllowBelow:
		return detection.DecisionAllow
	case severity >= t.BlockAtOrAbove:
		return detection.DecisionBlock
	default:
		return detection.DecisionFlag
	}
}
