package series

import (
	"errors"
	"sync"
)

var ErrAlreadyInitialized = errors.New("series already initialized")

// Store owns the chart overlay: historical values loaded once, plus at most one
// prediction point that is replaced on every merge.
type Store struct {
	labels     []int
	historical []Slot
	prediction []Slot

	initialized bool
	hasPending  bool
	pending     PredictionPoint
	mu          sync.Mutex
}

func NewStore() *Store {
	return &Store{}
}

// Initialize lays down the historical series in the order received. A prediction
// merged before the history arrived is re-applied on top of it.
func (s *Store) Initialize(points []HistoricalPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.labels = make([]int, 0, len(points)+1)
	s.historical = make([]Slot, 0, len(points)+1)
	for _, p := range points {
		s.labels = append(s.labels, p.Year)
		s.historical = append(s.historical, Some(p.MMR))
	}
	s.prediction = make([]Slot, len(s.labels))
	s.initialized = true
	if s.hasPending {
		s.merge(s.pending)
	}
	return nil
}

// MergePrediction replaces the prediction overlay with a single point at year.
// An unknown year is appended to the label axis without re-sorting. The point
// is unclassified, which counts as low risk the same way ClassifyRisk does.
func (s *Store) MergePrediction(year int, value float64) {
	s.Merge(PredictionPoint{Year: year, MMR: value, RiskLevel: RiskLow})
}

// Merge is MergePrediction for a classified point; the risk level is kept
// alongside the overlay and reported by Prediction.
func (s *Store) Merge(p PredictionPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge(p)
}

func (s *Store) merge(p PredictionPoint) {
	idx := indexOf(s.labels, p.Year)
	if idx == -1 {
		s.labels = append(s.labels, p.Year)
		s.historical = append(s.historical, Slot{})
		idx = len(s.labels) - 1
	}
	s.prediction = make([]Slot, len(s.labels))
	s.prediction[idx] = Some(p.MMR)
	s.hasPending = true
	s.pending = p
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Labels:     make([]int, len(s.labels)),
		Historical: make([]Slot, len(s.historical)),
		Prediction: make([]Slot, len(s.prediction)),
	}
	copy(st.Labels, s.labels)
	copy(st.Historical, s.historical)
	copy(st.Prediction, s.prediction)
	return st
}

func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Prediction reports the current prediction point, if any.
func (s *Store) Prediction() (PredictionPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.hasPending
}

func indexOf(labels []int, year int) int {
	for i, y := range labels {
		if y == year {
			return i
		}
	}
	return -1
}
