package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
)

const (
	sheetPrediksi = "Prediksi"
	sheetHistoris = "Historis"
)

// Workbook builds an xlsx workbook with the predicted and historical series.
func Workbook(res *forecast.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := fillWorkbook(f, res); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// fillWorkbook writes both sheets of res into a fresh workbook f.
func fillWorkbook(f *excelize.File, res *forecast.Result) error {
	if err := f.SetSheetName("Sheet1", sheetPrediksi); err != nil {
		return err
	}

	headers := []string{"Tahun", "Prediksi Volume (Ribu Ekor)", "Batas Bawah", "Batas Atas",
		"Nilai (Rp. Juta)", "Harga Rata-Rata Tertimbang(Rp/ ribu ekor)", "Tahun Mendatang"}
	if err := writeHeader(f, sheetPrediksi, headers, 20); err != nil {
		return err
	}

	for i, p := range res.Predictions {
		row := i + 2
		values := []any{p.Year, round2(p.Yhat), round2(p.Lower), round2(p.Upper)}
		if i < len(res.Timeline) {
			values = append(values, res.Timeline[i].Nominal, res.Timeline[i].Price)
		} else {
			values = append(values, nil, nil)
		}
		future := "Tidak"
		if p.Year > res.LastHistoricalYear {
			future = "Ya"
		}
		values = append(values, future)

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetPrediksi, cell, &values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetHistoris); err != nil {
		return err
	}
	if err := writeHeader(f, sheetHistoris, []string{"Tahun", "Volume (Ribu Ekor)"}, 20); err != nil {
		return err
	}
	for i, h := range res.History {
		row := i + 2
		f.SetCellValue(sheetHistoris, fmt.Sprintf("A%d", row), h.Year)
		f.SetCellValue(sheetHistoris, fmt.Sprintf("B%d", row), h.Value)
	}

	f.SetCellValue(sheetHistoris, "D1", "Kelompok Ikan")
	f.SetCellValue(sheetHistoris, "E1", res.Segment.SpeciesGroup)
	f.SetCellValue(sheetHistoris, "D2", "Kab / Kota")
	f.SetCellValue(sheetHistoris, "E2", res.Segment.Region)

	return nil
}

// WriteWorkbook saves the workbook of res to path.
func WriteWorkbook(path string, res *forecast.Result) error {
	f, err := Workbook(res)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, width float64) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
