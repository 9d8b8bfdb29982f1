package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
)

const disclaimer = "**Disclaimer:** Prediksi ini didasarkan pada data historis dan nilai regressor yang Anda masukkan. " +
	"Hasil prediksi merupakan estimasi dan tidak dapat dijamin 100% akurat. " +
	"Berbagai faktor eksternal yang tidak termasuk dalam model dapat mempengaruhi hasil aktual."

// WriteSummary writes a markdown summary of res.
func WriteSummary(w io.Writer, res *forecast.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Prediksi Volume Produksi Ikan Pembenihan\n## %s - %s\n\n", res.Segment.SpeciesGroup, res.Segment.Region)

	b.WriteString("### Ringkasan\n\n")
	if n := len(res.History); n > 0 {
		first, last := res.History[0], res.History[n-1]
		fmt.Fprintf(&b, "- **Data Historis**: %d - %d (%d tahun)\n", first.Year, last.Year, n)
		fmt.Fprintf(&b, "- **Volume %d**: %s ribu ekor\n", first.Year, formatNumber(first.Value))
		fmt.Fprintf(&b, "- **Volume %d**: %s ribu ekor\n", last.Year, formatNumber(last.Value))
		if len(res.Future) > 0 && last.Value != 0 {
			end := res.Future[len(res.Future)-1]
			growth := (end.Yhat - last.Value) / last.Value * 100
			fmt.Fprintf(&b, "- **Perubahan s.d. %d**: %.1f%%\n", end.Year, growth)
		}
	}
	fmt.Fprintf(&b, "- **Tahun Prediksi**: %d\n", len(res.Future))

	b.WriteString("\n### Prediksi Tahun Mendatang\n\n")
	if len(res.Future) == 0 {
		b.WriteString("Tidak ada prediksi untuk tahun mendatang.\n")
	} else {
		b.WriteString("| Tahun | Volume (Ribu Ekor) | Batas Bawah | Batas Atas | Nilai (Rp. Juta) | Harga Rata-Rata Tertimbang |\n")
		b.WriteString("|-------|--------------------|-------------|------------|------------------|----------------------------|\n")
		regs := make(map[int][2]float64, len(res.Timeline))
		for _, e := range res.Timeline {
			regs[e.Year] = [2]float64{e.Nominal, e.Price}
		}
		for _, p := range res.Future {
			r := regs[p.Year]
			fmt.Fprintf(&b, "| %d | %.2f | %.2f | %.2f | %.2f | %.2f |\n", p.Year, p.Yhat, p.Lower, p.Upper, r[0], r[1])
		}
	}

	b.WriteString("\n### Informasi Model\n\n")
	b.WriteString("Model per segmen adalah model aditif (tren + musiman) dengan regressor tambahan " +
		"'Nilai (Rp. Juta)' dan 'Harga Rata-Rata Tertimbang (Rp/ ribu ekor)'.\n\n")
	b.WriteString(disclaimer)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
