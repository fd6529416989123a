package contracts

// TrendScore is the least-squares trend of a ticker's closes against
// its 0-based day index.
type TrendScore struct {
	Symbol           string  `json:"symbol"`
	Slope            float64 `json:"slope"`
	Intercept        float64 `json:"intercept"`
	R2               float64 `json:"r2"`
	Days             int     `json:"days"`
	InsufficientData bool    `json:"insufficient_data,omitempty"`
}

// Rising reports whether the trend slope is positive
func (t TrendScore) Rising() bool {
	return t.Slope > 0
}
