package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"
	"unsafe"

	"mmr-forecast/chart"
	"mmr-forecast/client"
	"mmr-forecast/dashboard"
	"mmr-forecast/series"
)

func runCLI(ctx context.Context, cfg config, logger *slog.Logger) error {
	c := client.New(cfg.server, nil)
	sink := chart.PNGFile{Adapter: chart.Adapter{Title: "Maternal Mortality Ratio"}, Path: cfg.chartOut}
	board := dashboard.New(c, c, sink, logger)

	clearScreen()
	fmt.Println(colorize("Maternal Mortality Forecast", colorBold+colorCyan))
	fmt.Println("---------------------------")
	// Load failures are logged; predictions still work without a chart.
	if err := board.Load(ctx); err == nil {
		printSeries(board.State())
		fmt.Printf("Chart written to %s\n", cfg.chartOut)
	}

	lines := scanLines(os.Stdin)
	for {
		req, err := promptRequest(ctx, lines)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println("\nInput ended. Exiting.")
				return nil
			}
			return err
		}

		summary, err := board.Submit(ctx, req)
		if err != nil {
			fmt.Println(colorize(crossMark+" "+dashboard.UserMessage(err), colorRed+colorBold))
		} else {
			width, _ := termSize()
			fmt.Println()
			renderBlock(formatSummary(summary), width)
			fmt.Println()
		}
		if board.Loaded() {
			printSeries(board.State())
			fmt.Printf("Chart written to %s\n", cfg.chartOut)
		}

		again, err := ask(ctx, lines, "Another prediction? [Y/n]: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.EqualFold(strings.TrimSpace(again), "n") {
			return nil
		}
	}
}

// scanLines feeds stdin lines to a channel so prompts can give up on ctx.
func scanLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

func ask(ctx context.Context, lines <-chan string, prompt string) (string, error) {
	fmt.Print(colorize(prompt, colorYellow))
	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

// promptRequest asks until it gets a year. Indicators that do not parse are
// sent as NaN, which goes over the wire as null.
func promptRequest(ctx context.Context, lines <-chan string) (series.PredictionRequest, error) {
	var req series.PredictionRequest
	for {
		in, err := ask(ctx, lines, "Year: ")
		if err != nil {
			return req, err
		}
		year, err := parseYear(in)
		if err == nil {
			req.Year = year
			break
		}
		fmt.Println(colorize("Year is required", colorRed))
	}
	fields := []struct {
		prompt string
		dst    *float64
	}{
		{"Skilled birth attendance (%): ", &req.SkilledBirthAttendance},
		{"Antenatal care coverage (%): ", &req.AntenatalCareCoverage},
		{"Health spending per capita: ", &req.HealthSpending},
	}
	for _, f := range fields {
		in, err := ask(ctx, lines, f.prompt)
		if err != nil {
			return req, err
		}
		*f.dst = parseNumber(in)
	}
	return req, nil
}

func parseYear(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func badgeColor(cat series.RiskLevel) string {
	switch cat {
	case series.RiskHigh:
		return colorRed + colorBold
	case series.RiskMedium:
		return colorYellow + colorBold
	default:
		return colorGreen + colorBold
	}
}

func formatSummary(s dashboard.Summary) []string {
	mark := checkMark
	if s.Category != series.RiskLow {
		mark = crossMark
	}
	return []string{
		colorize(fmt.Sprintf("Prediction for %d", s.Year), colorCyan+colorBold),
		fmt.Sprintf("%s per 100k live births", s.MMRText),
		colorize(fmt.Sprintf("%s %s", mark, s.RiskLevel), badgeColor(s.Category)),
	}
}

// seriesRows lists one row per label in display order.
func seriesRows(st series.State) []string {
	rows := make([]string, st.Len())
	pred := st.PredictionIndex()
	for i, year := range st.Labels {
		line := fmt.Sprintf("%-5d %9s %9s", year, slotText(st.Historical[i]), slotText(st.Prediction[i]))
		if i == pred {
			line = colorize(line, colorYellow+colorBold)
		}
		rows[i] = line
	}
	return rows
}

func slotText(s series.Slot) string {
	if !s.Valid || math.IsNaN(s.Value) {
		return "-"
	}
	return strconv.FormatFloat(s.Value, 'f', 1, 64)
}

func printSeries(st series.State) {
	rows := seriesRows(st)
	if len(rows) == 0 {
		fmt.Println("No historical data.")
		return
	}
	header := fmt.Sprintf("%-5s %9s %9s", "Year", "MMR", "Forecast")
	maxLen := len(header)
	for _, r := range rows {
		if l := visibleLen(r); l > maxLen {
			maxLen = l
		}
	}

	width, _ := termSize()
	colWidth := maxLen + 4
	cols := 1
	if width > 0 {
		if c := width / colWidth; c > 0 {
			cols = c
		}
	}
	if cols > len(rows) {
		cols = len(rows)
	}
	rowsPerCol := (len(rows) + cols - 1) / cols

	var heads []string
	for c := 0; c < cols; c++ {
		heads = append(heads, padRight(colorize(header, colorBold), colWidth+len(colorBold)+len(colorReset)))
	}
	fmt.Println(strings.TrimRight(strings.Join(heads, ""), " "))
	for r := 0; r < rowsPerCol; r++ {
		var parts []string
		for c := 0; c < cols; c++ {
			idx := c*rowsPerCol + r
			if idx >= len(rows) {
				continue
			}
			parts = append(parts, padRight(rows[idx], colWidth+len(rows[idx])-visibleLen(rows[idx])))
		}
		fmt.Println(strings.TrimRight(strings.Join(parts, ""), " "))
	}
}

// visibleLen ignores the ANSI color codes colorize adds.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEsc = true
		case inEsc:
			if r == 'm' {
				inEsc = false
			}
		default:
			n++
		}
	}
	return n
}

func colorize(s, color string) string {
	if color == "" {
		return s
	}
	return color + s + colorReset
}

func padRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func termSize() (int, int) {
	type winsize struct {
		Row    uint16
		Col    uint16
		Xpixel uint16
		Ypixel uint16
	}
	ws := &winsize{}
	_, _, err := syscall.Syscall6(syscall.SYS_IOCTL, uintptr(os.Stdout.Fd()), uintptr(syscall.TIOCGWINSZ), uintptr(unsafe.Pointer(ws)), 0, 0, 0)
	if err != 0 {
		return 0, 0
	}
	return int(ws.Col), int(ws.Row)
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}

// renderBlock prints lines left-aligned within a centered block.
func renderBlock(lines []string, width int) {
	maxLen := 0
	for _, l := range lines {
		if n := visibleLen(l); n > maxLen {
			maxLen = n
		}
	}
	margin := 0
	if width > 0 && maxLen < width {
		margin = (width - maxLen) / 2
	}
	space := strings.Repeat(" ", margin)
	for _, l := range lines {
		fmt.Println(space + l)
	}
}
