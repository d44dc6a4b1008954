package dashboard

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"mmr-forecast/series"
)

// Summary is what the result box shows for the latest prediction.
type Summary struct {
	Year      int              `json:"year"`
	MMR       float64          `json:"mmr"`
	MMRText   string           `json:"mmrText"`
	RiskLevel string           `json:"riskLevel"`
	Category  series.RiskLevel `json:"category"`
	Badge     string           `json:"badge"`
}

func Present(year int, res series.PredictionResult) Summary {
	cat := series.ClassifyRisk(res.RiskLevel)
	return Summary{
		Year:      year,
		MMR:       res.PredictedMMR,
		MMRText:   formatMMR(res.PredictedMMR),
		RiskLevel: res.RiskLevel,
		Category:  cat,
		Badge:     strings.ToLower(string(cat)),
	}
}

func formatMMR(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	// Round the exact binary value, not its shortest decimal form: 612.005 is
	// stored just below the tie and reads "612.00".
	return decimal.NewFromFloatWithExponent(v, -2).StringFixed(2)
}
