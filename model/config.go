package model

// KeywordScoringMethod selects how lexical relevance is scored
type KeywordScoringMethod string

const (
	MethodKeyword KeywordScoringMethod = "keyword"
	MethodBM25    KeywordScoringMethod = "bm25"
	MethodHybrid  KeywordScoringMethod = "hybrid"
)

// DecayType selects between down-weighting old content and boosting it
type DecayType string

const (
	DecayTypeDecay     DecayType = "decay"
	DecayTypeNostalgia DecayType = "nostalgia"
)

// DecayMode selects the curve shape
type DecayMode string

const (
	DecayModeExponential DecayMode = "exponential"
	DecayModeLinear      DecayMode = "linear"
)

// TemporalDecay configures the age-based rescaling stage
type TemporalDecay struct {
	Enabled      bool      `json:"enabled"`
	Type         DecayType `json:"type"`
	Mode         DecayMode `json:"mode"`
	HalfLife     float64   `json:"half_life"`
	LinearRate   float64   `json:"linear_rate"`
	MinRelevance float64   `json:"min_relevance"`
	MaxBoost     float64   `json:"max_boost"`
}

// BM25Params are the free parameters of the BM25 ranking function
type BM25Params struct {
	K1 float64 `json:"k1"`
	B  float64 `json:"b"`
}

// Settings is the full retrieval configuration of a query
type Settings struct {
	Threshold            float64              `json:"threshold"`
	TopK                 int                  `json:"top_k"`
	TemporalDecay        TemporalDecay        `json:"temporal_decay"`
	DeduplicationDepth   int                  `json:"deduplication_depth"`
	KeywordScoringMethod KeywordScoringMethod `json:"keyword_scoring_method"`
	BM25                 BM25Params           `json:"bm25"`
	InjectionPosition    Position             `json:"injection_position"`
	InjectionDepth       int                  `json:"injection_depth"`
}

// DefaultSettings returns a sensible default configuration
func DefaultSettings() Settings {
	return Settings{
		Threshold: 0.3,
		TopK:      5,
		TemporalDecay: TemporalDecay{
			Enabled:      false,
			Type:         DecayTypeDecay,
			Mode:         DecayModeExponential,
			HalfLife:     50,
			LinearRate:   0.01,
			MinRelevance: 0.1,
			MaxBoost:     2.0,
		},
		DeduplicationDepth:   0,
		KeywordScoringMethod: MethodKeyword,
		BM25:                 BM25Params{K1: 1.2, B: 0.75},
		InjectionPosition:    PositionInChat,
		InjectionDepth:       4,
	}
}

// Normalize clamps malformed values to valid ranges instead of failing the
// query. Unknown enum values fall back to their defaults.
func (s *Settings) Normalize() {
	s.Threshold = clamp(s.Threshold, 0, 1)
	if s.TopK < 0 {
		s.TopK = 0
	}
	if s.DeduplicationDepth < 0 {
		s.DeduplicationDepth = 0
	}

	d := &s.TemporalDecay
	if d.Type != DecayTypeDecay && d.Type != DecayTypeNostalgia {
		d.Type = DecayTypeDecay
	}
	if d.Mode != DecayModeExponential && d.Mode != DecayModeLinear {
		d.Mode = DecayModeExponential
	}
	if d.HalfLife <= 0 {
		d.HalfLife = 50
	}
	if d.LinearRate < 0 {
		d.LinearRate = 0
	}
	d.MinRelevance = clamp(d.MinRelevance, 0, 1)
	if d.MaxBoost < 1 {
		d.MaxBoost = 1
	}

	switch s.KeywordScoringMethod {
	case MethodKeyword, MethodBM25, MethodHybrid:
	default:
		s.KeywordScoringMethod = MethodKeyword
	}

	if s.BM25.K1 <= 0 {
		s.BM25.K1 = 1.2
	}
	s.BM25.B = clamp(s.BM25.B, 0, 1)

	switch s.InjectionPosition {
	case PositionBeforePrompt, PositionInChat, PositionAfterPrompt:
	default:
		s.InjectionPosition = PositionInChat
	}
	if s.InjectionDepth < 0 {
		s.InjectionDepth = 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
