package contracts

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIngestReport_AcceptRate(t *testing.T) {
	tests := []struct {
		name   string
		report IngestReport
		want   float64
	}{
		{
			name:   "all accepted",
			report: IngestReport{RowsRead: 100, RowsAccepted: 100},
			want:   1.0,
		},
		{
			name:   "partial",
			report: IngestReport{RowsRead: 100, RowsAccepted: 75, RowsRejected: 25},
			want:   0.75,
		},
		{
			name:   "empty input",
			report: IngestReport{},
			want:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.AcceptRate(); got != tt.want {
				t.Errorf("AcceptRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualitySnapshot_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		snapshot QualitySnapshot
		want     bool
	}{
		{
			name:     "valid snapshot",
			snapshot: QualitySnapshot{Tickers: 5, Bars: 1200, Passed: true},
			want:     true,
		},
		{
			name:     "no tickers",
			snapshot: QualitySnapshot{Tickers: 0, Bars: 0},
			want:     false,
		},
		{
			name:     "tickers without bars",
			snapshot: QualitySnapshot{Tickers: 3, Bars: 0},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualitySnapshot_JSON(t *testing.T) {
	original := QualitySnapshot{
		Tickers:     10,
		Bars:        2500,
		FirstDate:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		LastDate:    time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
		ShortSeries: []string{"NEWCO"},
		Passed:      true,
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded QualitySnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.Tickers != original.Tickers {
		t.Errorf("Tickers mismatch: got %d, want %d", decoded.Tickers, original.Tickers)
	}
	if decoded.Bars != original.Bars {
		t.Errorf("Bars mismatch: got %d, want %d", decoded.Bars, original.Bars)
	}
	if len(decoded.ShortSeries) != 1 || decoded.ShortSeries[0] != "NEWCO" {
		t.Errorf("ShortSeries mismatch: got %v", decoded.ShortSeries)
	}
}
