package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"mmr-forecast/series"
)

var (
	ErrYearRequired        = errors.New("Year is required")
	ErrInsufficientHistory = errors.New("Insufficient historical data for prediction")
)

// Service answers prediction requests against a fixed history table.
type Service struct {
	model   *Model
	history []Row
}

func NewService(model *Model, history []Row) *Service {
	return &Service{model: model, history: history}
}

// Input is the /predict body. Fields are optional on the wire.
type Input struct {
	Year                   *int     `json:"year"`
	SkilledBirthAttendance *float64 `json:"skilled_birth_attendance"`
	AntenatalCareCoverage  *float64 `json:"antenatal_care_coverage"`
	HealthSpending         *float64 `json:"health_spending"`
}

type Info struct {
	ModelType      string            `json:"model_type"`
	Features       []string          `json:"features"`
	TrainingYears  string            `json:"training_years"`
	RiskThresholds map[string]string `json:"risk_thresholds"`
}

// IsInputError reports whether err stems from the request rather than the service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrYearRequired) || errors.Is(err, ErrInsufficientHistory)
}

func (s *Service) Predict(in Input) (series.PredictionResult, error) {
	if in.Year == nil {
		return series.PredictionResult{}, ErrYearRequired
	}
	row := Row{
		Year:                   *in.Year,
		MMR:                    math.NaN(),
		SkilledBirthAttendance: valueOrNaN(in.SkilledBirthAttendance),
		AntenatalCareCoverage:  valueOrNaN(in.AntenatalCareCoverage),
		HealthSpending:         valueOrNaN(in.HealthSpending),
	}
	features, ok := engineer(s.history, row)
	if !ok {
		return series.PredictionResult{}, ErrInsufficientHistory
	}
	mmr := s.model.Score(features)
	if isMissing(mmr) {
		return series.PredictionResult{}, fmt.Errorf("model produced %v for year %d", mmr, row.Year)
	}
	return series.PredictionResult{
		PredictedMMR: mmr,
		RiskLevel:    s.model.RiskLabel(mmr),
	}, nil
}

func (s *Service) History() []series.HistoricalPoint {
	return HistoryPoints(s.history)
}

func (s *Service) Info() Info {
	years := ""
	if len(s.history) > 0 {
		years = fmt.Sprintf("%d-%d", s.history[0].Year, s.history[len(s.history)-1].Year)
	}
	t := s.model.Thresholds
	return Info{
		ModelType:     s.model.Type,
		Features:      append([]string(nil), s.model.Features...),
		TrainingYears: years,
		RiskThresholds: map[string]string{
			"high":   fmt.Sprintf("> %g", t.High),
			"medium": fmt.Sprintf("%g-%g", t.Medium, t.High),
			"low":    fmt.Sprintf("<= %g", t.Medium),
		},
	}
}

// Local exposes a Service through the same calls the HTTP client makes, for
// callers running in the same process.
type Local struct {
	Service *Service
}

func (l Local) History(ctx context.Context) ([]series.HistoricalPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Service.History(), nil
}

func (l Local) Predict(ctx context.Context, req series.PredictionRequest) (series.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return series.PredictionResult{}, err
	}
	year := req.Year
	return l.Service.Predict(Input{
		Year:                   &year,
		SkilledBirthAttendance: finiteOrNil(req.SkilledBirthAttendance),
		AntenatalCareCoverage:  finiteOrNil(req.AntenatalCareCoverage),
		HealthSpending:         finiteOrNil(req.HealthSpending),
	})
}

func valueOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func finiteOrNil(v float64) *float64 {
	if isMissing(v) {
		return nil
	}
	return &v
}
