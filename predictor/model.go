package predictor

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultHighThreshold   = 1000
	defaultMediumThreshold = 500
)

// Model is a linear regressor over the engineered features.
type Model struct {
	Type         string             `yaml:"model_type"`
	Features     []string           `yaml:"features"`
	Intercept    float64            `yaml:"intercept"`
	Coefficients map[string]float64 `yaml:"coefficients"`
	Thresholds   Thresholds         `yaml:"risk_thresholds"`
}

type Thresholds struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

func LoadModel(path string) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseModel(b)
}

func ParseModel(b []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Features) == 0 {
		return errors.New("model has no features")
	}
	known := map[string]bool{}
	for _, f := range knownFeatures {
		known[f] = true
	}
	for _, f := range m.Features {
		if !known[f] {
			return fmt.Errorf("unknown feature %q", f)
		}
		if _, ok := m.Coefficients[f]; !ok {
			return fmt.Errorf("feature %q has no coefficient", f)
		}
	}
	if m.Type == "" {
		m.Type = "Linear Regressor"
	}
	if m.Thresholds.High == 0 {
		m.Thresholds.High = defaultHighThreshold
	}
	if m.Thresholds.Medium == 0 {
		m.Thresholds.Medium = defaultMediumThreshold
	}
	if m.Thresholds.Medium > m.Thresholds.High {
		return fmt.Errorf("medium threshold %v above high threshold %v", m.Thresholds.Medium, m.Thresholds.High)
	}
	return nil
}

// Score applies the regression. Missing (NaN) features contribute nothing.
func (m *Model) Score(features map[string]float64) float64 {
	total := m.Intercept
	for _, name := range m.Features {
		v, ok := features[name]
		if !ok || isMissing(v) {
			continue
		}
		total += m.Coefficients[name] * v
	}
	return total
}

func (m *Model) RiskLabel(mmr float64) string {
	switch {
	case mmr > m.Thresholds.High:
		return "High Risk"
	case mmr > m.Thresholds.Medium:
		return "Medium Risk"
	default:
		return "Low Risk"
	}
}
