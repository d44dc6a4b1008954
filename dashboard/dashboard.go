package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mmr-forecast/series"
)

var ErrBusy = errors.New("a prediction is already in flight")

const unreachableMessage = "Failed to connect to server."

type HistorySource interface {
	History(ctx context.Context) ([]series.HistoricalPoint, error)
}

type Predictor interface {
	Predict(ctx context.Context, req series.PredictionRequest) (series.PredictionResult, error)
}

// Renderer receives the overlay after every change once history is loaded.
type Renderer interface {
	Render(st series.State) error
}

// Dashboard is one user session: it owns the series store and wires the load and
// submit paths to the chart and the result summary.
type Dashboard struct {
	history   HistorySource
	predictor Predictor
	renderer  Renderer
	store     *series.Store
	log       *slog.Logger

	mu      sync.Mutex
	busy    bool
	summary *Summary
}

func New(history HistorySource, predictor Predictor, renderer Renderer, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		history:   history,
		predictor: predictor,
		renderer:  renderer,
		store:     series.NewStore(),
		log:       logger,
	}
}

// Load fetches the history once and draws the first chart. On failure the
// chart stays undrawn for the rest of the session; nothing is retried.
func (d *Dashboard) Load(ctx context.Context) error {
	points, err := d.history.History(ctx)
	if err != nil {
		d.log.Error("error loading history", "error", err)
		return err
	}
	if err := d.store.Initialize(points); err != nil {
		return err
	}
	d.log.Debug("history loaded", "points", len(points))
	d.render()
	return nil
}

// Submit runs one prediction. While a call is in flight further calls fail with
// ErrBusy. A failed prediction leaves the store and the last summary untouched.
func (d *Dashboard) Submit(ctx context.Context, req series.PredictionRequest) (Summary, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return Summary{}, ErrBusy
	}
	d.busy = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.busy = false
		d.mu.Unlock()
	}()

	res, err := d.predictor.Predict(ctx, req)
	if err != nil {
		d.log.Warn("prediction failed", "year", req.Year, "error", err)
		return Summary{}, err
	}

	summary := Present(req.Year, res)
	d.mu.Lock()
	d.summary = &summary
	d.mu.Unlock()

	d.store.Merge(series.PredictionPoint{Year: req.Year, MMR: res.PredictedMMR, RiskLevel: summary.Category})
	d.render()
	d.log.Info("prediction merged", "year", req.Year, "mmr", res.PredictedMMR, "risk", res.RiskLevel)
	return summary, nil
}

func (d *Dashboard) render() {
	if d.renderer == nil || !d.store.Initialized() {
		return
	}
	if err := d.renderer.Render(d.store.State()); err != nil {
		d.log.Warn("chart render failed", "error", err)
	}
}

func (d *Dashboard) State() series.State { return d.store.State() }

func (d *Dashboard) Loaded() bool { return d.store.Initialized() }

// Summary returns the summary of the latest successful prediction.
func (d *Dashboard) Summary() (Summary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.summary == nil {
		return Summary{}, false
	}
	return *d.summary, true
}

// UserMessage is the alert text for a failed submission: the server's own
// message when it sent one, a generic connectivity message otherwise.
func UserMessage(err error) string {
	var sm interface{ ServerMessage() string }
	switch {
	case errors.As(err, &sm):
		return "Error: " + sm.ServerMessage()
	case errors.Is(err, ErrBusy):
		return "A prediction is already running."
	default:
		return unreachableMessage
	}
}
