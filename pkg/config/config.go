package config

// DetectorConfig is the main configuration for the abuse detection service.
type DetectorConfig struct {
	// Input validation limits
	MaxTextLength int `yaml:"max_text_length"`

	// Languages the service accepts hints for and loads lexicons for
	SupportedLanguages []string `yaml:"supported_languages"`

	// Decision thresholds: severity < allow_below => allow,
	// severity >= block_at_or_above => block, otherwise flag.
	Thresholds ThresholdConfig `yaml:"thresholds"`

	// Minimum adjusted severity for a detection's category to appear in labels
	LabelFloor float64 `yaml:"label_floor"`

	Lexicon    LexiconConfig    `yaml:"lexicon"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Cache      CacheConfig      `yaml:"cache"`
	Batch      BatchConfig      `yaml:"batch"`
	API        APIConfig        `yaml:"api"`
}

// ThresholdConfig holds the default decision thresholds.
type ThresholdConfig struct {
	AllowBelow     float64 `yaml:"allow_below"`
	BlockAtOrAbove float64 `yaml:"block_at_or_above"`
}

// LexiconConfig controls lexicon loading and fuzzy matching.
type LexiconConfig struct {
	// Dir is the directory of per-language YAML term files (<lang>.yaml)
	Dir string `yaml:"dir"`

	// Watch enables hot reload of the lexicon directory via fsnotify.
	// Reload swaps a whole immutable snapshot, never mutates in place.
	Watch bool `yaml:"watch"`

	// MaxEditDistance bounds the fuzzy tier's edit distance
	MaxEditDistance int `yaml:"max_edit_distance"`

	// MinFuzzyLength is the minimum term length (runes) for fuzzy matching
	MinFuzzyLength int `yaml:"min_fuzzy_length"`
}

// AnalyzerConfig holds context-rule multipliers and windows. All multipliers
// dampen; none raise severity.
type AnalyzerConfig struct {
	QuotationFactor     float64 `yaml:"quotation_factor"`
	NegationFactor      float64 `yaml:"negation_factor"`
	NegationFloor       float64 `yaml:"negation_floor"`
	NegationWindow      int     `yaml:"negation_window"`
	SelfReferenceFactor float64 `yaml:"self_reference_factor"`
	InterrogativeFactor float64 `yaml:"interrogative_factor"`
}

// ClassifierConfig describes the external ML scoring service.
type ClassifierConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// CacheConfig configures the result cache for repeated inputs.
type CacheConfig struct {
	// Backend is "memory" or "redis"
	Backend    string      `yaml:"backend"`
	Enabled    bool        `yaml:"enabled"`
	TTLSeconds int         `yaml:"ttl_seconds"`
	MaxEntries int         `yaml:"max_entries"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings for the result cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

// BatchConfig bounds batch detection.
type BatchConfig struct {
	MaxItems   int `yaml:"max_items"`
	MaxWorkers int `yaml:"max_workers"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Port int `yaml:"port"`
}

// Default returns a configuration with all defaults applied.
func Default() *DetectorConfig {
	cfg := &DetectorConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *DetectorConfig) applyDefaults() {
	if c.MaxTextLength == 0 {
		c.MaxTextLength = 10000
	}
	if len(c.SupportedLanguages) == 0 {
		c.SupportedLanguages = []string{"en", "hi", "bn", "ta", "te", "kn", "ml", "gu", "pa", "or", "ur"}
	}
	if c.Thresholds.AllowBelow == 0 && c.Thresholds.BlockAtOrAbove == 0 {
		c.Thresholds.AllowBelow = 0.5
		c.Thresholds.BlockAtOrAbove = 0.8
	}
	if c.LabelFloor == 0 {
		c.LabelFloor = 0.1
	}
	if c.Lexicon.Dir == "" {
		c.Lexicon.Dir = "lexicons"
	}
	if c.Lexicon.MaxEditDistance == 0 {
		c.Lexicon.MaxEditDistance = 1
	}
	if c.Lexicon.MinFuzzyLength == 0 {
		c.Lexicon.MinFuzzyLength = 5
	}
	if c.Analyzer.QuotationFactor == 0 {
		c.Analyzer.QuotationFactor = 0.5
	}
	if c.Analyzer.NegationFactor == 0 {
		c.Analyzer.NegationFactor = 0.3
	}
	if c.Analyzer.NegationFloor == 0 {
		c.Analyzer.NegationFloor = 0.05
	}
	if c.Analyzer.NegationWindow == 0 {
		c.Analyzer.NegationWindow = 5
	}
	if c.Analyzer.SelfReferenceFactor == 0 {
		c.Analyzer.SelfReferenceFactor = 0.7
	}
	if c.Analyzer.InterrogativeFactor == 0 {
		c.Analyzer.InterrogativeFactor = 0.8
	}
	if c.Classifier.TimeoutMs == 0 {
		c.Classifier.TimeoutMs = 500
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}
	if c.Batch.MaxItems == 0 {
		c.Batch.MaxItems = 100
	}
	if c.Batch.MaxWorkers == 0 {
		c.Batch.MaxWorkers = 8
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}
