package forecast

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/frame"
	"github.com/sekarsister/prediksi-pembenihan/internal/model"
)

var (
	lele = dataset.Segment{SpeciesGroup: "Ikan Lele", Region: "Bandung"}
	nila = dataset.Segment{SpeciesGroup: "Ikan Nila", Region: "Garut"}
)

func historicalTable() *dataset.Table {
	var records []dataset.HistoricalRecord
	volumes := []float64{1000, 1100, 1250, 1300, 1420}
	for i, year := range []int{2019, 2020, 2021, 2022, 2023} {
		records = append(records, dataset.HistoricalRecord{
			SpeciesGroup: lele.SpeciesGroup,
			Region:       lele.Region,
			Year:         year,
			Volume:       volumes[i],
			Nominal:      300 + 10*float64(i),
			Price:        250 + float64(i),
		})
	}
	records = append(records,
		dataset.HistoricalRecord{SpeciesGroup: nila.SpeciesGroup, Region: nila.Region, Year: 2022, Volume: 80, Nominal: 20, Price: 100},
		dataset.HistoricalRecord{SpeciesGroup: nila.SpeciesGroup, Region: nila.Region, Year: 2023, Volume: 90, Nominal: 22, Price: 110},
	)
	return dataset.NewTable("historis", records)
}

func leleArtifact() *model.Artifact {
	start := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &model.Artifact{
		SpeciesGroup: lele.SpeciesGroup,
		Region:       lele.Region,
		Growth:       model.GrowthLinear,
		Start:        model.Date{Time: start},
		TScaleDays:   1461,
		YScale:       1420,
		K:            0.3,
		M:            0.7,
		Regressors: []model.Regressor{
			{Name: dataset.ColNominal, Mu: 320, Std: 15, Mode: model.ModeAdditive, Beta: 0.02},
			{Name: dataset.ColPrice, Mu: 252, Std: 1.5, Mode: model.ModeAdditive, Beta: 0.01},
		},
		IntervalWidth: 0.8,
		SigmaObs:      0.02,
	}
}

func newStore(t *testing.T) *model.Store {
	t.Helper()
	dir := t.TempDir()
	data, err := json.Marshal(leleArtifact())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prophet_model_Ikan_Lele_Bandung.json"), data, 0o644))
	return model.NewStore(dir, "", 0, zaptest.NewLogger(t))
}

func TestRunEndToEnd(t *testing.T) {
	fc := NewContext(historicalTable(), newStore(t), zaptest.NewLogger(t))

	res, err := fc.Run(context.Background(), Request{
		Segment: lele,
		Periods: 2,
		Regressors: map[int]frame.Regressors{
			2024: {Nominal: 360, Price: 256},
			2025: {Nominal: 375, Price: 258},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2023, res.LastHistoricalYear)
	assert.Equal(t, []int{2019, 2020, 2021, 2022, 2023, 2024, 2025}, res.Timeline.Years())
	require.Len(t, res.Predictions, 7)
	for i, p := range res.Predictions {
		assert.Equal(t, res.Timeline[i].Year, p.Year, "output order follows the timeline")
	}

	require.Len(t, res.Future, 2)
	assert.Equal(t, 2024, res.Future[0].Year)
	assert.Equal(t, 2025, res.Future[1].Year)
	for _, p := range res.Future {
		assert.False(t, p.Yhat == 0, "prediction should be populated")
		assert.Less(t, p.Lower, p.Yhat)
		assert.Greater(t, p.Upper, p.Yhat)
	}

	assert.Len(t, res.History, 5)
	assert.Equal(t, dataset.YearValue{Year: 2023, Value: 1420}, res.History[4])
}

func TestRunMissingModel(t *testing.T) {
	fc := NewContext(historicalTable(), newStore(t), zaptest.NewLogger(t))

	res, err := fc.Run(context.Background(), Request{Segment: nila, Periods: 2})
	assert.Nil(t, res)

	var notFound *model.ModelNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Ikan_Nila_Garut", notFound.Segment)

	// The session keeps working for other segments.
	_, err = fc.Run(context.Background(), Request{Segment: lele, Periods: 1})
	assert.NoError(t, err)
}

func TestRunPredictionError(t *testing.T) {
	dir := t.TempDir()
	broken := leleArtifact()
	broken.Regressors = append(broken.Regressors, model.Regressor{Name: "Jumlah Pembudidaya", Beta: 1})
	data, err := json.Marshal(broken)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prophet_model_Ikan_Lele_Bandung.json"), data, 0o644))

	fc := NewContext(historicalTable(), model.NewStore(dir, "", 0, nil), nil)
	_, err = fc.Run(context.Background(), Request{Segment: lele, Periods: 1})

	var predErr *model.PredictionError
	assert.ErrorAs(t, err, &predErr)
}

func TestRunInvalidRequest(t *testing.T) {
	fc := NewContext(historicalTable(), newStore(t), nil)

	_, err := fc.Run(context.Background(), Request{Segment: lele, Periods: 0})
	assert.ErrorIs(t, err, frame.ErrInvalidPeriods)

	_, err = fc.Run(context.Background(), Request{Segment: dataset.Segment{SpeciesGroup: "Ikan Mas", Region: "Bogor"}, Periods: 1})
	assert.ErrorIs(t, err, frame.ErrUnknownSegment)
}

func TestCheckPeriods(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		n     int
		ok    bool
	}{
		{"default limit upper bound", 0, DefaultMaxPeriods, true},
		{"default limit exceeded", 0, DefaultMaxPeriods + 1, false},
		{"configured limit", 5, 5, true},
		{"configured limit exceeded", 5, 6, false},
		{"limit capped by builder", frame.MaxPeriods * 2, frame.MaxPeriods + 1, false},
		{"zero", 10, 0, false},
		{"huge", 10, 4611686018427387904, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := NewContext(historicalTable(), nil, nil)
			fc.MaxPeriods = tt.limit
			err := fc.CheckPeriods(tt.n)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, frame.ErrInvalidPeriods)
		})
	}
}

func TestOversizedHorizonIsRejectedBeforeAllocation(t *testing.T) {
	fc := NewContext(historicalTable(), newStore(t), nil)
	fc.MaxPeriods = 10

	_, err := fc.FutureYears(lele, 4611686018427387904)
	assert.ErrorIs(t, err, frame.ErrInvalidPeriods)

	_, err = fc.DefaultRegressors(lele, 5_000_000_000, nil, nil)
	assert.ErrorIs(t, err, frame.ErrInvalidPeriods)

	_, err = fc.Run(context.Background(), Request{Segment: lele, Periods: 11})
	assert.ErrorIs(t, err, frame.ErrInvalidPeriods)
}

func TestDefaultRegressors(t *testing.T) {
	fc := NewContext(historicalTable(), nil, nil)

	got, err := fc.DefaultRegressors(nila, 3, []float64{50}, []float64{120, 125})
	require.NoError(t, err)

	table := historicalTable()
	assert.Equal(t, map[int]frame.Regressors{
		2024: {Nominal: 50, Price: 120},
		2025: {Nominal: table.MeanNominal(), Price: 125},
		2026: {Nominal: table.MeanNominal(), Price: table.MeanPrice()},
	}, got)

	_, err = fc.DefaultRegressors(nila, 1, []float64{1, 2}, nil)
	assert.Error(t, err)

	_, err = fc.FutureYears(nila, 0)
	assert.ErrorIs(t, err, frame.ErrInvalidPeriods)
}

func TestFutureOnly(t *testing.T) {
	preds := []model.Prediction{{Year: 2022}, {Year: 2023}, {Year: 2024}}
	assert.Equal(t, []model.Prediction{{Year: 2024}}, FutureOnly(preds, 2023))
	assert.Empty(t, FutureOnly(preds, 2024))
}
