package predictor

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"mmr-forecast/series"
)

// Row is one year of the engineered history table. Missing cells are NaN.
type Row struct {
	Year                   int
	MMR                    float64
	SkilledBirthAttendance float64
	AntenatalCareCoverage  float64
	HealthSpending         float64
}

const (
	colYear     = "year"
	colMMR      = "MMR"
	colSBA      = "skilled_birth_attendance"
	colANC      = "antenatal_care_coverage"
	colSpending = "health_spending"
)

func LoadHistory(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadHistory(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadHistory parses a CSV with a header row and returns the rows sorted by year.
// Columns other than the five known ones are ignored; rows without a year are dropped.
func ReadHistory(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colYear]; !ok {
		return nil, fmt.Errorf("missing %q column", colYear)
	}
	if _, ok := cols[colMMR]; !ok {
		return nil, fmt.Errorf("missing %q column", colMMR)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		year := cell(rec, cols, colYear)
		if math.IsNaN(year) {
			continue
		}
		if year != math.Trunc(year) {
			return nil, fmt.Errorf("line %d: year %v is not an integer", line, year)
		}
		rows = append(rows, Row{
			Year:                   int(year),
			MMR:                    cell(rec, cols, colMMR),
			SkilledBirthAttendance: cell(rec, cols, colSBA),
			AntenatalCareCoverage:  cell(rec, cols, colANC),
			HealthSpending:         cell(rec, cols, colSpending),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows, nil
}

func cell(rec []string, cols map[string]int, name string) float64 {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return math.NaN()
	}
	s := strings.TrimSpace(rec[i])
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// HistoryPoints returns the rows that carry an MMR value.
func HistoryPoints(rows []Row) []series.HistoricalPoint {
	out := make([]series.HistoricalPoint, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.MMR) {
			continue
		}
		out = append(out, series.HistoricalPoint{Year: r.Year, MMR: r.MMR})
	}
	return out
}
