package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Table is a validated, read-only production table.
type Table struct {
	source  string
	records []HistoricalRecord
}

// NewTable wraps already typed records.
func NewTable(source string, records []HistoricalRecord) *Table {
	cp := make([]HistoricalRecord, len(records))
	copy(cp, records)
	return &Table{source: source, records: cp}
}

// Source returns the name the table was read from.
func (t *Table) Source() string { return t.source }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of every record in source order.
func (t *Table) Records() []HistoricalRecord {
	cp := make([]HistoricalRecord, len(t.records))
	copy(cp, t.records)
	return cp
}

// SpeciesGroups returns the distinct species groups in first-occurrence order.
func (t *Table) SpeciesGroups() []string {
	return distinct(t.records, func(r HistoricalRecord) string { return r.SpeciesGroup })
}

// Regions returns the distinct regions in first-occurrence order.
func (t *Table) Regions() []string {
	return distinct(t.records, func(r HistoricalRecord) string { return r.Region })
}

// Segments returns the distinct (species group, region) pairs in
// first-occurrence order.
func (t *Table) Segments() []Segment {
	seen := make(map[Segment]struct{})
	var out []Segment
	for _, r := range t.records {
		seg := r.Segment()
		if _, ok := seen[seg]; ok {
			continue
		}
		seen[seg] = struct{}{}
		out = append(out, seg)
	}
	return out
}

// MaxYear returns the latest year in the table, or 0 for an empty table.
func (t *Table) MaxYear() int {
	latest := 0
	for i, r := range t.records {
		if i == 0 || r.Year > latest {
			latest = r.Year
		}
	}
	return latest
}

// HasSegment reports whether the table holds any record for seg.
func (t *Table) HasSegment(seg Segment) bool {
	for _, r := range t.records {
		if r.Segment() == seg {
			return true
		}
	}
	return false
}

// History returns the raw records of seg ordered by year. Rows sharing a
// year keep their source order.
func (t *Table) History(seg Segment) []HistoricalRecord {
	var out []HistoricalRecord
	for _, r := range t.records {
		if r.Segment() == seg {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// LastYear returns the latest year observed for seg and whether seg exists.
func (t *Table) LastYear(seg Segment) (int, bool) {
	history := t.History(seg)
	if len(history) == 0 {
		return 0, false
	}
	return history[len(history)-1].Year, true
}

// Yearly folds the history of seg into one observation per year, sorted by
// year. Volume and nominal value are summed; the weighted price becomes the
// volume-weighted mean of the folded rows, or their plain mean when the
// summed volume is zero. Blank regressor cells are skipped and a year whose
// cells are all blank keeps NaN.
func (t *Table) Yearly(seg Segment) []YearlyObservation {
	history := t.History(seg)

	var out []YearlyObservation
	for start := 0; start < len(history); {
		end := start
		for end < len(history) && history[end].Year == history[start].Year {
			end++
		}
		out = append(out, fold(history[start:end]))
		start = end
	}
	return out
}

func fold(rows []HistoricalRecord) YearlyObservation {
	obs := YearlyObservation{Year: rows[0].Year}

	volumes := make([]float64, 0, len(rows))
	var nominals, prices, weights []float64
	for _, r := range rows {
		volumes = append(volumes, r.Volume)
		if !math.IsNaN(r.Nominal) {
			nominals = append(nominals, r.Nominal)
		}
		if !math.IsNaN(r.Price) {
			prices = append(prices, r.Price)
			weights = append(weights, r.Volume)
		}
	}

	obs.Volume = floats.Sum(volumes)

	obs.Nominal = math.NaN()
	if len(nominals) > 0 {
		obs.Nominal = floats.Sum(nominals)
	}

	obs.Price = math.NaN()
	switch {
	case len(prices) == 1:
		obs.Price = prices[0]
	case len(prices) > 1 && floats.Sum(weights) != 0:
		obs.Price = stat.Mean(prices, weights)
	case len(prices) > 1:
		obs.Price = stat.Mean(prices, nil)
	}

	return obs
}

// AggregatedVolume returns the (year, summed volume) series of seg.
func (t *Table) AggregatedVolume(seg Segment) []YearValue {
	yearly := t.Yearly(seg)
	out := make([]YearValue, len(yearly))
	for i, y := range yearly {
		out[i] = YearValue{Year: y.Year, Value: y.Volume}
	}
	return out
}

// MeanNominal returns the mean nominal value over every non-blank cell.
func (t *Table) MeanNominal() float64 {
	return t.mean(func(r HistoricalRecord) float64 { return r.Nominal })
}

// MeanPrice returns the mean weighted price over every non-blank cell.
func (t *Table) MeanPrice() float64 {
	return t.mean(func(r HistoricalRecord) float64 { return r.Price })
}

func (t *Table) mean(field func(HistoricalRecord) float64) float64 {
	values := make([]float64, 0, len(t.records))
	for _, r := range t.records {
		if v := field(r); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func distinct(records []HistoricalRecord, field func(HistoricalRecord) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := field(r)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
