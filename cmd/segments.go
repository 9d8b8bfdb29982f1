package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func segmentsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "segments",
		Short: "List species groups, regions and segments of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, store, err := a.session()
			if err != nil {
				return err
			}
			table := fc.Dataset
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Kelompok Ikan: %s\n", strings.Join(table.SpeciesGroups(), ", "))
			fmt.Fprintf(out, "Kab / Kota: %s\n", strings.Join(table.Regions(), ", "))
			fmt.Fprintf(out, "Tahun terakhir: %d\n\n", table.MaxYear())

			for _, seg := range table.Segments() {
				last, _ := table.LastYear(seg)
				status := "model tersedia"
				if !store.Exists(seg) {
					status = "model tidak ditemukan"
				}
				fmt.Fprintf(out, "- %s (s.d. %d): %s\n", seg, last, status)
			}
			return nil
		},
	}
}
