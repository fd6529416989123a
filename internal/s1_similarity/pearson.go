package s1_similarity

import (
	"math"

	"github.com/wonny/prism/internal/contracts"
)

// alignByDate pairs closes for the calendar dates both series share.
// Pairs come out in a's date order, so repeated calls yield identical
// sequences.
func alignByDate(a, b *contracts.Series) ([]float64, []float64) {
	bByDate := b.CloseByDate()

	x := make([]float64, 0, len(a.Bars))
	y := make([]float64, 0, len(a.Bars))
	for _, bar := range a.Bars {
		if closeB, ok := bByDate[bar.DateKey()]; ok {
			x = append(x, bar.Close)
			y = append(y, closeB)
		}
	}
	return x, y
}

// pearson computes the correlation coefficient of two equal-length
// samples, clamped to [-1, 1]. ok is false when the coefficient is
// undefined (fewer than 2 samples or zero variance on either side).
func pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, false
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var covariance, varX, varY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		covariance += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}

	r := covariance / math.Sqrt(varX*varY)

	// Guard against floating point drift past the bounds
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}
