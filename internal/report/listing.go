package report

import (
	"fmt"
	"io"

	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
)

// Listing writes one line per future year of res.
func Listing(w io.Writer, res *forecast.Result) error {
	if len(res.Future) == 0 {
		_, err := fmt.Fprintln(w, "Tidak ada prediksi untuk tahun mendatang.")
		return err
	}
	for _, p := range res.Future {
		if _, err := fmt.Fprintf(w, "Tahun: %d, Volume (Ribu Ekor): %.2f\n", p.Year, p.Yhat); err != nil {
			return err
		}
	}
	return nil
}

func formatNumber(num float64) string {
	switch {
	case num >= 1000000:
		return fmt.Sprintf("%.2fM", num/1000000)
	case num >= 1000:
		return fmt.Sprintf("%.1fK", num/1000)
	}
	return fmt.Sprintf("%.2f", num)
}
