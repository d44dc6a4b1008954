package series

import (
	"encoding/json"
	"math"
	"strings"
)

type HistoricalPoint struct {
	Year int     `json:"year"`
	MMR  float64 `json:"MMR"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ClassifyRisk maps the endpoint's free-text risk label onto a category.
// The check is case-sensitive containment; anything without High or Medium is Low.
func ClassifyRisk(label string) RiskLevel {
	switch {
	case strings.Contains(label, string(RiskHigh)):
		return RiskHigh
	case strings.Contains(label, string(RiskMedium)):
		return RiskMedium
	default:
		return RiskLow
	}
}

type PredictionPoint struct {
	Year      int       `json:"year"`
	MMR       float64   `json:"mmr"`
	RiskLevel RiskLevel `json:"riskLevel"`
}

// PredictionRequest is the form payload. Unparseable numbers are carried as NaN
// and go over the wire as null.
type PredictionRequest struct {
	Year                   int     `json:"year" jsonschema:"description=Target year for the prediction"`
	SkilledBirthAttendance float64 `json:"skilled_birth_attendance" jsonschema:"minimum=0,maximum=100,description=Percentage of births attended by skilled personnel"`
	AntenatalCareCoverage  float64 `json:"antenatal_care_coverage" jsonschema:"minimum=0,maximum=100,description=Percentage of pregnancies with at least one antenatal visit"`
	HealthSpending         float64 `json:"health_spending" jsonschema:"minimum=0,description=Health expenditure per capita"`
}

func (r PredictionRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year                   int      `json:"year"`
		SkilledBirthAttendance *float64 `json:"skilled_birth_attendance"`
		AntenatalCareCoverage  *float64 `json:"antenatal_care_coverage"`
		HealthSpending         *float64 `json:"health_spending"`
	}{
		Year:                   r.Year,
		SkilledBirthAttendance: finite(r.SkilledBirthAttendance),
		AntenatalCareCoverage:  finite(r.AntenatalCareCoverage),
		HealthSpending:         finite(r.HealthSpending),
	})
}

type PredictionResult struct {
	PredictedMMR float64 `json:"predicted_mmr"`
	RiskLevel    string  `json:"risk_level"`
}

// Slot is one entry of a sparse series. Valid is false where the series has
// no value for the label at the same index.
type Slot struct {
	Value float64
	Valid bool
}

func Some(v float64) Slot { return Slot{Value: v, Valid: true} }

func (s Slot) MarshalJSON() ([]byte, error) {
	if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Slot{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Some(v)
	return nil
}

// State is a copy of the overlay: the label axis and the two series aligned to it.
type State struct {
	Labels     []int  `json:"labels"`
	Historical []Slot `json:"historical"`
	Prediction []Slot `json:"prediction"`
}

func (st State) Len() int { return len(st.Labels) }

// PredictionIndex returns the index of the single prediction entry, or -1.
func (st State) PredictionIndex() int {
	for i, s := range st.Prediction {
		if s.Valid {
			return i
		}
	}
	return -1
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
