package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"

	"mmr-forecast/dashboard"
	"mmr-forecast/series"
)

func TestPadRight(t *testing.T) {
	cases := []struct {
		in     string
		width  int
		expect string
	}{
		{"abc", 5, "abc  "},
		{"abc", 3, "abc"},
		{"", 2, "  "},
	}
	for _, tc := range cases {
		got := padRight(tc.in, tc.width)
		if got != tc.expect {
			t.Fatalf("padRight(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.expect)
		}
	}
}

func TestVisibleLenSkipsColorCodes(t *testing.T) {
	if got := visibleLen(colorize("2025", colorYellow+colorBold)); got != 4 {
		t.Fatalf("visibleLen = %d, want 4", got)
	}
}

func TestParseNumberFallsBackToNaN(t *testing.T) {
	if got := parseNumber(" 72.5 "); got != 72.5 {
		t.Fatalf("parseNumber = %v", got)
	}
	for _, in := range []string{"", "abc", "12abc"} {
		if got := parseNumber(in); !math.IsNaN(got) {
			t.Fatalf("parseNumber(%q) = %v, want NaN", in, got)
		}
	}
}

func TestPromptRequestRetriesYear(t *testing.T) {
	lines := make(chan string, 5)
	for _, l := range []string{"soon", "2025", "70", "", "65"} {
		lines <- l
	}
	close(lines)

	var req series.PredictionRequest
	var err error
	captureOutput(t, func() {
		req, err = promptRequest(context.Background(), lines)
	})
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if req.Year != 2025 || req.SkilledBirthAttendance != 70 || req.HealthSpending != 65 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !math.IsNaN(req.AntenatalCareCoverage) {
		t.Fatalf("blank indicator should be NaN, got %v", req.AntenatalCareCoverage)
	}
}

func TestPromptRequestStopsAtEOFAndCancel(t *testing.T) {
	lines := make(chan string)
	close(lines)
	captureOutput(t, func() {
		if _, err := promptRequest(context.Background(), lines); !errors.Is(err, io.EOF) {
			t.Errorf("expected EOF, got %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	captureOutput(t, func() {
		if _, err := promptRequest(ctx, make(chan string)); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestSeriesRowsMarksPrediction(t *testing.T) {
	st := series.State{
		Labels:     []int{2019, 2020, 2025},
		Historical: []series.Slot{series.Some(300), series.Some(280), {}},
		Prediction: []series.Slot{{}, {}, series.Some(150)},
	}
	rows := seriesRows(st)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0] != "2019      300.0         -" {
		t.Fatalf("row 0 = %q", rows[0])
	}
	if !strings.HasPrefix(rows[2], colorYellow) || !strings.Contains(rows[2], "150.0") {
		t.Fatalf("prediction row should be highlighted: %q", rows[2])
	}
}

func TestPrintSeriesListsEveryYear(t *testing.T) {
	st := series.State{
		Labels:     []int{2019, 2020},
		Historical: []series.Slot{series.Some(300), series.Some(280)},
		Prediction: []series.Slot{{}, {}},
	}
	output := captureOutput(t, func() { printSeries(st) })
	for _, want := range []string{"Year", "Forecast", "2019", "300.0", "2020", "280.0"} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q:\n%s", want, output)
		}
	}

	empty := captureOutput(t, func() { printSeries(series.State{}) })
	if !strings.Contains(empty, "No historical data.") {
		t.Fatalf("unexpected output for empty state: %q", empty)
	}
}

func TestFormatSummaryPlacesRiskLast(t *testing.T) {
	lines := formatSummary(dashboard.Present(2030, series.PredictionResult{PredictedMMR: 1234.5678, RiskLevel: "High Risk"}))
	if len(lines) != 3 || !strings.Contains(lines[1], "1234.57") {
		t.Fatalf("unexpected summary lines: %q", lines)
	}
	if !strings.HasPrefix(lines[2], colorRed) || !strings.Contains(lines[2], "High Risk") {
		t.Fatalf("risk line should be red: %q", lines[2])
	}
}

func TestEnvOrAndParseLevel(t *testing.T) {
	t.Setenv("MMR_TEST_ADDR", ":9000")
	if got := envOr("MMR_TEST_ADDR", ":8000"); got != ":9000" {
		t.Fatalf("envOr = %q", got)
	}
	if got := envOr("MMR_TEST_UNSET", ":8000"); got != ":8000" {
		t.Fatalf("envOr fallback = %q", got)
	}
	if parseLevel("debug") != slog.LevelDebug || parseLevel("WARN") != slog.LevelWarn || parseLevel("loud") != slog.LevelInfo {
		t.Fatalf("unexpected level parsing")
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = old
	}()

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	out := <-done
	r.Close()
	return out
}
