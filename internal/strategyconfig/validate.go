package strategyconfig

import "fmt"

// ValidationError is a fatal configuration error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a recommended-constraint violation (non-fatal)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints.
// Any violation refuses the run before the pipeline starts.
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Similarity ===
	if cfg.Similarity.TopK < 1 {
		return ValidationError{"similarity.top_k", "must be >= 1"}
	}
	if cfg.Similarity.Cutoff < 0 || cfg.Similarity.Cutoff >= 1 {
		return ValidationError{"similarity.cutoff", "must be in [0, 1)"}
	}
	if cfg.Similarity.EdgePolicy != EdgePolicyMagnitude && cfg.Similarity.EdgePolicy != EdgePolicyPositive {
		return ValidationError{"similarity.edge_policy", "must be MAGNITUDE or POSITIVE"}
	}
	if cfg.Similarity.MinOverlap < 2 {
		return ValidationError{"similarity.min_overlap", "must be >= 2"}
	}

	// === Community ===
	if cfg.Community.MaxLevels < 1 {
		return ValidationError{"community.max_levels", "must be >= 1"}
	}
	if cfg.Community.Tolerance <= 0 {
		return ValidationError{"community.tolerance", "must be > 0"}
	}

	// === Trend ===
	if cfg.Trend.MinDays < 2 {
		return ValidationError{"trend.min_days", "must be >= 2"}
	}

	// === Recommend ===
	if cfg.Recommend.TopN < 1 {
		return ValidationError{"recommend.top_n", "must be >= 1"}
	}
	if cfg.Recommend.Order != OrderCommunityID && cfg.Recommend.Order != OrderSize {
		return ValidationError{"recommend.order", "must be COMMUNITY_ID or SIZE"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Similarity.Cutoff < 0.1 {
		warnings = append(warnings, Warning{
			Code:    "LOW_CUTOFF",
			Message: fmt.Sprintf("cutoff %.2f admits near-noise correlations", cfg.Similarity.Cutoff),
		})
	}

	if cfg.Similarity.TopK > 10 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_TOPK",
			Message: fmt.Sprintf("top_k %d produces a dense graph and slow detection", cfg.Similarity.TopK),
		})
	}

	if cfg.Community.Tolerance < 1e-8 {
		warnings = append(warnings, Warning{
			Code:    "TIGHT_TOLERANCE",
			Message: "tolerance below 1e-8 rarely converges before max_levels",
		})
	}

	return warnings
}
