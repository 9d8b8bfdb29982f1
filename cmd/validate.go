package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
)

func validateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a production dataset",
		Long:  `Validate an xlsx or csv production dataset. Without an argument the configured dataset is checked.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}

			out := cmd.OutOrStdout()
			table, err := a.loadTable(path)
			if err != nil {
				var missing *dataset.MissingColumnsError
				if errors.As(err, &missing) {
					fmt.Fprintf(out, "❌ Kolom wajib tidak ditemukan: %s\n", strings.Join(missing.Missing, ", "))
				}
				return err
			}

			fmt.Fprintf(out, "✅ Dataset valid: %s\n", table.Source())
			fmt.Fprintf(out, "   %d baris, %d segmen, %d kelompok ikan, %d kab/kota\n",
				table.Len(), len(table.Segments()), len(table.SpeciesGroups()), len(table.Regions()))
			fmt.Fprintf(out, "   Tahun terakhir: %d\n", table.MaxYear())
			return nil
		},
	}
}
