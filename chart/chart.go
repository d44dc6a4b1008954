package chart

import (
	"errors"
	"io"
	"math"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"mmr-forecast/series"
)

const (
	HistoricalLabel = "Historical MMR"
	PredictionLabel = "Prediction"

	historicalColor = "#6366f1"
	historicalFill  = "rgba(99, 102, 241, 0.2)"
	predictionColor = "#ec4899"

	defaultWidth  = 900
	defaultHeight = 420
)

var ErrNothingToDraw = errors.New("chart: no values to draw")

// Dataset follows the Chart.js dataset options the page passes straight through.
type Dataset struct {
	Label            string        `json:"label"`
	Data             []series.Slot `json:"data"`
	BorderColor      string        `json:"borderColor"`
	BackgroundColor  string        `json:"backgroundColor"`
	BorderWidth      int           `json:"borderWidth,omitempty"`
	Tension          float64       `json:"tension,omitempty"`
	Fill             bool          `json:"fill"`
	PointRadius      int           `json:"pointRadius"`
	PointHoverRadius int           `json:"pointHoverRadius,omitempty"`
	ShowLine         bool          `json:"showLine"`
}

type Config struct {
	Labels   []int     `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Adapter turns overlay state into what a chart needs. The zero value is usable.
type Adapter struct {
	Title  string
	Width  int
	Height int
}

// Config is a pure function of st: the same state always gives the same two datasets.
func (a Adapter) Config(st series.State) Config {
	return Config{
		Labels: append([]int{}, st.Labels...),
		Datasets: []Dataset{
			{
				Label:           HistoricalLabel,
				Data:            append([]series.Slot{}, st.Historical...),
				BorderColor:     historicalColor,
				BackgroundColor: historicalFill,
				BorderWidth:     2,
				Tension:         0.4,
				Fill:            true,
				PointRadius:     3,
				ShowLine:        true,
			},
			{
				Label:            PredictionLabel,
				Data:             append([]series.Slot{}, st.Prediction...),
				BorderColor:      predictionColor,
				BackgroundColor:  predictionColor,
				PointRadius:      6,
				PointHoverRadius: 8,
				ShowLine:         false,
			},
		},
	}
}

// WritePNG draws st with go-chart. Labels become category ticks at their index,
// so an appended out-of-order year is drawn where it sits on the axis.
func (a Adapter) WritePNG(w io.Writer, st series.State) error {
	ch, err := a.build(st)
	if err != nil {
		return err
	}
	return ch.Render(gochart.PNG, w)
}

func (a Adapter) build(st series.State) (*gochart.Chart, error) {
	hx, hy := points(st.Historical)
	px, py := points(st.Prediction)
	if len(hx) == 0 && len(px) == 0 {
		return nil, ErrNothingToDraw
	}

	var list []gochart.Series
	if len(hx) > 0 {
		list = append(list, gochart.ContinuousSeries{
			Name:    HistoricalLabel,
			XValues: hx,
			YValues: hy,
			Style: gochart.Style{
				StrokeColor: drawing.ColorFromHex(historicalColor[1:]),
				StrokeWidth: 2,
				FillColor:   drawing.Color{R: 99, G: 102, B: 241, A: 51},
				DotColor:    drawing.ColorFromHex(historicalColor[1:]),
				DotWidth:    3,
			},
		})
	}
	if len(px) > 0 {
		list = append(list, gochart.ContinuousSeries{
			Name:    PredictionLabel,
			XValues: px,
			YValues: py,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotColor:    drawing.ColorFromHex(predictionColor[1:]),
				DotWidth:    6,
			},
		})
	}

	ticks := make([]gochart.Tick, len(st.Labels))
	for i, y := range st.Labels {
		ticks[i] = gochart.Tick{Value: float64(i), Label: strconv.Itoa(y)}
	}
	lo, hi := valueRange(hy, py)

	width, height := a.Width, a.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	ch := &gochart.Chart{
		Title:      a.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(len(st.Labels)) - 0.5},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Name:  "Maternal Mortality Ratio",
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: list,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(ch)}
	return ch, nil
}

// points keeps the drawable entries of a sparse series, keyed by label index.
func points(slots []series.Slot) (xs, ys []float64) {
	for i, s := range slots {
		if !s.Valid || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, s.Value)
	}
	return xs, ys
}

// valueRange always includes zero and pads the extremes by a tenth.
func valueRange(sets ...[]float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, vals := range sets {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	lo, hi = lo*1.1, hi*1.1
	if hi-lo < 1 {
		hi = lo + 1
	}
	return lo, hi
}
