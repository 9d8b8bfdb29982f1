package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
	"github.com/sekarsister/prediksi-pembenihan/internal/model"
	"github.com/sekarsister/prediksi-pembenihan/internal/report"
)

type predictOptions struct {
	group   string
	region  string
	years   int
	nominal []float64
	price   []float64
	chart   string
	xlsx    string
	summary string
}

func predictCommand(a *app) *cobra.Command {
	opts := &predictOptions{}

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast production volume for one segment",
		Long: `Forecast the production volume of one species group and region for the
years following its last recorded year. Nominal value and weighted price for
each future year default to the dataset column means.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("years") {
				opts.years = a.settings.Forecast.DefaultPeriods
			}
			return runPredict(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.group, "group", "g", "", "Species group (Kelompok Ikan)")
	cmd.Flags().StringVarP(&opts.region, "region", "r", "", "Region (Kab / Kota)")
	cmd.Flags().IntVarP(&opts.years, "years", "n", 3, "Number of future years")
	cmd.Flags().Float64SliceVar(&opts.nominal, "nominal", nil, "Nominal value (Rp. Juta) per future year, comma separated")
	cmd.Flags().Float64SliceVar(&opts.price, "price", nil, "Weighted price (Rp/ribu ekor) per future year, comma separated")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "Write the actual vs forecast chart to this file (png, svg, pdf)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Write the forecast workbook to this file")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "Write a markdown summary to this file")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("region")

	return cmd
}

func runPredict(cmd *cobra.Command, a *app, opts *predictOptions) error {
	fc, _, err := a.session()
	if err != nil {
		return err
	}

	seg := dataset.Segment{SpeciesGroup: opts.group, Region: opts.region}
	regs, err := fc.DefaultRegressors(seg, opts.years, opts.nominal, opts.price)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := fc.Run(cmd.Context(), forecast.Request{Segment: seg, Periods: opts.years, Regressors: regs})
	if err != nil {
		var notFound *model.ModelNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintf(out, "⚠️  Model untuk %s tidak ditemukan: %s\n", seg, notFound.Path)
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "📈 Prediksi %s (data historis s.d. %d)\n", seg, res.LastHistoricalYear)
	if err := report.Listing(out, res); err != nil {
		return err
	}

	return a.writeOutputs(cmd, res, opts)
}

func (a *app) writeOutputs(cmd *cobra.Command, res *forecast.Result, opts *predictOptions) error {
	out := cmd.OutOrStdout()

	if path := a.outputPath(opts.chart); path != "" {
		if err := report.SaveChart(path, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "📁 Grafik disimpan: %s\n", path)
	}

	if path := a.outputPath(opts.xlsx); path != "" {
		if err := report.WriteWorkbook(path, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "📁 File Excel disimpan: %s\n", path)
	}

	if path := a.outputPath(opts.summary); path != "" {
		if err := writeSummaryFile(path, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "📁 Ringkasan disimpan: %s\n", path)
	}

	a.logger.Debug("outputs written",
		zap.String("chart", opts.chart),
		zap.String("xlsx", opts.xlsx),
		zap.String("summary", opts.summary))
	return nil
}

func writeSummaryFile(path string, res *forecast.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(f, res); err != nil {
		f.Close()
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return f.Close()
}
