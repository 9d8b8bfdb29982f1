// Package dataset loads and validates the hatchery production table and
// exposes the per-segment views the forecaster works on.
package dataset

import (
	"fmt"
	"strings"
)

// Column headers of the production workbook.
const (
	ColSpeciesGroup = "Kelompok Ikan"
	ColRegion       = "Kab / Kota"
	ColYear         = "Tahun"
	ColVolume       = "Volume (Ribu Ekor)"
	ColNominal      = "Nilai (Rp. Juta)"
	ColPrice        = "Harga Rata-Rata Tertimbang(Rp/ ribu ekor)"
)

// RequiredColumns lists every column a dataset must carry, in canonical order.
var RequiredColumns = []string{
	ColSpeciesGroup,
	ColRegion,
	ColYear,
	ColVolume,
	ColNominal,
	ColPrice,
}

// HistoricalRecord is one observed row of the production table.
// Nominal and Price are NaN when the source cell was blank.
type HistoricalRecord struct {
	SpeciesGroup string
	Region       string
	Year         int
	Volume       float64
	Nominal      float64
	Price        float64
}

// Segment returns the segment the record belongs to.
func (r HistoricalRecord) Segment() Segment {
	return Segment{SpeciesGroup: r.SpeciesGroup, Region: r.Region}
}

// Segment is a (species group, region) pair, the unit of forecasting.
type Segment struct {
	SpeciesGroup string `json:"species_group"`
	Region       string `json:"region"`
}

// keyReplacer maps spaces and path separators to underscores so a key is
// always a single file name.
var keyReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_")

// Key returns the normalized artifact key "<species_group>_<region>" with
// spaces and path separators replaced by underscores.
func (s Segment) Key() string {
	return keyReplacer.Replace(s.SpeciesGroup) + "_" + keyReplacer.Replace(s.Region)
}

func (s Segment) String() string {
	return fmt.Sprintf("%s - %s", s.SpeciesGroup, s.Region)
}

// YearlyObservation is a segment's observation for a single year after
// duplicate rows have been folded together.
type YearlyObservation struct {
	Year    int
	Volume  float64
	Nominal float64
	Price   float64
}

// YearValue is a (year, value) point of a series.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}
