package predictor

import (
	"math"
	"sort"
)

const (
	featYear     = "year"
	featSBA      = "skilled_birth_attendance"
	featANC      = "antenatal_care_coverage"
	featSpending = "health_spending"
	featLag1     = "mmr_lag_1"
	featLag2     = "mmr_lag_2"
	feat3yrAvg   = "mmr_3yr_avg"
	feat5yrAvg   = "mmr_5yr_avg"
	featSlope    = "trend_slope"
	featRiskFlag = "risk_flag"
)

const (
	slopeWindow   = 5
	slopeMinCount = 3
)

var knownFeatures = []string{
	featYear, featSBA, featANC, featSpending,
	featLag1, featLag2, feat3yrAvg, feat5yrAvg, featSlope, featRiskFlag,
}

func isMissing(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// engineer inserts in after every history row of the same or earlier year and
// derives the model features for the first row carrying in's year. When that
// year is already in the history, the history row is the one scored. ok is
// false if any row of that year lacks a lag.
func engineer(history []Row, in Row) (features map[string]float64, ok bool) {
	combined := make([]Row, 0, len(history)+1)
	combined = append(combined, history...)
	combined = append(combined, in)
	sort.SliceStable(combined, func(i, j int) bool { return combined[i].Year < combined[j].Year })

	mmr := make([]float64, len(combined))
	for i, r := range combined {
		mmr[i] = r.MMR
	}

	ok = true
	for i, r := range combined {
		if r.Year != in.Year {
			continue
		}
		if features == nil {
			features = rowFeatures(r, mmr, i)
		}
		if isMissing(shifted(mmr, i, 1)) || isMissing(shifted(mmr, i, 2)) {
			ok = false
		}
	}
	return features, ok
}

func rowFeatures(r Row, mmr []float64, idx int) map[string]float64 {
	return map[string]float64{
		featYear:     float64(r.Year),
		featSBA:      r.SkilledBirthAttendance,
		featANC:      r.AntenatalCareCoverage,
		featSpending: r.HealthSpending,
		featLag1:     shifted(mmr, idx, 1),
		featLag2:     shifted(mmr, idx, 2),
		feat3yrAvg:   rollingMean(mmr, idx, 3),
		feat5yrAvg:   rollingMean(mmr, idx, 5),
		featSlope:    rollingSlope(mmr, idx, slopeWindow, slopeMinCount),
		featRiskFlag: 0,
	}
}

func shifted(v []float64, idx, n int) float64 {
	if idx-n < 0 {
		return math.NaN()
	}
	return v[idx-n]
}

// rollingMean needs a full window with no missing values.
func rollingMean(v []float64, idx, window int) float64 {
	start := idx - window + 1
	if start < 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range v[start : idx+1] {
		if isMissing(x) {
			return math.NaN()
		}
		sum += x
	}
	return sum / float64(window)
}

// rollingSlope fits a least-squares line to the present values of the trailing
// window, indexed 0..k-1 after dropping missing ones.
func rollingSlope(v []float64, idx, window, minCount int) float64 {
	start := idx - window + 1
	if start < 0 {
		start = 0
	}
	var ys []float64
	for _, x := range v[start : idx+1] {
		if !isMissing(x) {
			ys = append(ys, x)
		}
	}
	if len(ys) < minCount {
		return math.NaN()
	}
	return slope(ys)
}

func slope(ys []float64) float64 {
	n := float64(len(ys))
	meanX := (n - 1) / 2
	meanY := 0.0
	for _, y := range ys {
		meanY += y
	}
	meanY /= n
	var num, den float64
	for i, y := range ys {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
