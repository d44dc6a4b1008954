package series

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func slots(vals ...any) []Slot {
	out := make([]Slot, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			out[i] = Some(f)
		}
	}
	return out
}

func checkAligned(t *testing.T, st State) {
	t.Helper()
	if len(st.Historical) != len(st.Labels) || len(st.Prediction) != len(st.Labels) {
		t.Fatalf("misaligned state: labels=%d historical=%d prediction=%d",
			len(st.Labels), len(st.Historical), len(st.Prediction))
	}
	seen := map[int]bool{}
	for _, y := range st.Labels {
		if seen[y] {
			t.Fatalf("duplicate label %d in %v", y, st.Labels)
		}
		seen[y] = true
	}
	valid := 0
	for _, s := range st.Prediction {
		if s.Valid {
			valid++
		}
	}
	if valid > 1 {
		t.Fatalf("expected at most one prediction entry, got %d", valid)
	}
}

func TestInitializeAndMergeScenarios(t *testing.T) {
	s := NewStore()
	if err := s.Initialize([]HistoricalPoint{{2019, 300}, {2020, 280}}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	st := s.State()
	checkAligned(t, st)
	if !reflect.DeepEqual(st.Labels, []int{2019, 2020}) {
		t.Fatalf("labels = %v", st.Labels)
	}
	if !reflect.DeepEqual(st.Historical, slots(300.0, 280.0)) {
		t.Fatalf("historical = %v", st.Historical)
	}
	if !reflect.DeepEqual(st.Prediction, slots(nil, nil)) {
		t.Fatalf("prediction = %v", st.Prediction)
	}

	s.MergePrediction(2025, 150)
	st = s.State()
	checkAligned(t, st)
	if !reflect.DeepEqual(st.Labels, []int{2019, 2020, 2025}) {
		t.Fatalf("labels after future merge = %v", st.Labels)
	}
	if !reflect.DeepEqual(st.Historical, slots(300.0, 280.0, nil)) {
		t.Fatalf("historical after future merge = %v", st.Historical)
	}
	if !reflect.DeepEqual(st.Prediction, slots(nil, nil, 150.0)) {
		t.Fatalf("prediction after future merge = %v", st.Prediction)
	}

	s.MergePrediction(2020, 275)
	st = s.State()
	checkAligned(t, st)
	if len(st.Labels) != 3 {
		t.Fatalf("merging an existing year must not grow labels: %v", st.Labels)
	}
	if !reflect.DeepEqual(st.Prediction, slots(nil, 275.0, nil)) {
		t.Fatalf("prediction after existing-year merge = %v", st.Prediction)
	}
	if !reflect.DeepEqual(st.Historical, slots(300.0, 280.0, nil)) {
		t.Fatalf("historical must not change: %v", st.Historical)
	}
}

func TestMergeOnEmptyHistory(t *testing.T) {
	s := NewStore()
	if err := s.Initialize(nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	s.MergePrediction(2030, 90)
	st := s.State()
	checkAligned(t, st)
	if !reflect.DeepEqual(st.Labels, []int{2030}) {
		t.Fatalf("labels = %v", st.Labels)
	}
	if st.Historical[0].Valid || !st.Prediction[0].Valid || st.Prediction[0].Value != 90 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestMergeKeepsInvariantsAcrossManyMerges(t *testing.T) {
	s := NewStore()
	_ = s.Initialize([]HistoricalPoint{{2000, 900}, {2001, 880}, {2002, 860}})
	years := []int{2010, 2001, 1995, 2010, 2030, 2000, 1995}
	for i, y := range years {
		s.MergePrediction(y, float64(100+i))
		st := s.State()
		checkAligned(t, st)
		idx := st.PredictionIndex()
		if idx < 0 || st.Labels[idx] != y || st.Prediction[idx].Value != float64(100+i) {
			t.Fatalf("merge %d: prediction not at year %d: %+v", i, y, st)
		}
	}
	st := s.State()
	// 1995 is appended after 2010, not sorted in.
	want := []int{2000, 2001, 2002, 2010, 1995, 2030}
	if !reflect.DeepEqual(st.Labels, want) {
		t.Fatalf("labels = %v, want %v", st.Labels, want)
	}
	for i, v := range []float64{900, 880, 860} {
		if !st.Historical[i].Valid || st.Historical[i].Value != v {
			t.Fatalf("historical[%d] changed: %+v", i, st.Historical[i])
		}
	}
}

func TestStateIsACopy(t *testing.T) {
	s := NewStore()
	_ = s.Initialize([]HistoricalPoint{{2019, 300}})
	a := s.State()
	b := s.State()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("state should be stable without mutation")
	}
	a.Labels[0] = 1
	a.Historical[0] = Slot{}
	if got := s.State(); got.Labels[0] != 2019 || !got.Historical[0].Valid {
		t.Fatalf("mutating a snapshot leaked into the store: %+v", got)
	}
}

func TestInitializeTwiceFails(t *testing.T) {
	s := NewStore()
	_ = s.Initialize([]HistoricalPoint{{2019, 300}})
	if err := s.Initialize([]HistoricalPoint{{1990, 1}}); err != ErrAlreadyInitialized {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if got := s.State().Labels; !reflect.DeepEqual(got, []int{2019}) {
		t.Fatalf("second initialize changed labels: %v", got)
	}
}

func TestHistoryArrivingAfterPrediction(t *testing.T) {
	s := NewStore()
	s.MergePrediction(2020, 275)
	if s.Initialized() {
		t.Fatalf("store should not be initialized yet")
	}
	if err := s.Initialize([]HistoricalPoint{{2019, 300}, {2020, 280}}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	st := s.State()
	checkAligned(t, st)
	if !reflect.DeepEqual(st.Labels, []int{2019, 2020}) {
		t.Fatalf("labels = %v", st.Labels)
	}
	if !reflect.DeepEqual(st.Prediction, slots(nil, 275.0)) {
		t.Fatalf("pending prediction not re-applied: %v", st.Prediction)
	}
	p, ok := s.Prediction()
	if !ok || p.Year != 2020 || p.MMR != 275 {
		t.Fatalf("prediction = %+v, %v", p, ok)
	}
}

func TestMergeKeepsRiskLevel(t *testing.T) {
	s := NewStore()
	_ = s.Initialize([]HistoricalPoint{{2019, 300}, {2020, 280}})
	s.Merge(PredictionPoint{Year: 2025, MMR: 1200, RiskLevel: RiskHigh})
	if p, ok := s.Prediction(); !ok || p.RiskLevel != RiskHigh || p.MMR != 1200 {
		t.Fatalf("prediction = %+v, %v", p, ok)
	}
	s.MergePrediction(2020, 275)
	p, _ := s.Prediction()
	if p.Year != 2020 || p.RiskLevel != RiskLow {
		t.Fatalf("unclassified merge should replace the point as low risk: %+v", p)
	}
	if st := s.State(); !reflect.DeepEqual(st.Prediction, slots(nil, 275.0, nil)) {
		t.Fatalf("prediction series = %v", st.Prediction)
	}
}

func TestMalformedHistoryPassesThrough(t *testing.T) {
	s := NewStore()
	_ = s.Initialize([]HistoricalPoint{{2019, math.NaN()}})
	st := s.State()
	if !st.Historical[0].Valid || !math.IsNaN(st.Historical[0].Value) {
		t.Fatalf("NaN should be kept as-is: %+v", st.Historical[0])
	}
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"labels":[2019],"historical":[null],"prediction":[null]}` {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestClassifyRisk(t *testing.T) {
	cases := []struct {
		in   string
		want RiskLevel
	}{
		{"High Risk", RiskHigh},
		{"Medium Risk", RiskMedium},
		{"Low Risk", RiskLow},
		{"high risk", RiskLow},
		{"Very High / Medium", RiskHigh},
		{"", RiskLow},
	}
	for _, tc := range cases {
		if got := ClassifyRisk(tc.in); got != tc.want {
			t.Fatalf("ClassifyRisk(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPredictionRequestEncodesNaNAsNull(t *testing.T) {
	req := PredictionRequest{Year: 2025, SkilledBirthAttendance: math.NaN(), AntenatalCareCoverage: 80, HealthSpending: 12.5}
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"year":2025,"skilled_birth_attendance":null,"antenatal_care_coverage":80,"health_spending":12.5}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}
