// Package forecast runs one prediction pass for a segment: it builds the
// timeline, resolves the segment model and evaluates it.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/frame"
	"github.com/sekarsister/prediksi-pembenihan/internal/model"
)

// ModelSource resolves the artifact of a segment.
type ModelSource interface {
	Load(ctx context.Context, seg dataset.Segment) (*model.Artifact, error)
}

// DefaultMaxPeriods is the horizon limit used when Context.MaxPeriods is unset.
const DefaultMaxPeriods = 50

// Context carries the session state shared by every prediction: the
// read-only dataset and the model store.
type Context struct {
	Dataset *dataset.Table
	Models  ModelSource
	Logger  *zap.Logger
	// MaxPeriods bounds Request.Periods; zero means DefaultMaxPeriods.
	MaxPeriods int
}

// NewContext returns a Context; a nil logger is replaced by a no-op one.
func NewContext(table *dataset.Table, models ModelSource, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{Dataset: table, Models: models, Logger: logger.Named("forecast")}
}

// CheckPeriods returns ErrInvalidPeriods unless 1 <= n <= the horizon limit.
func (c *Context) CheckPeriods(n int) error {
	limit := c.MaxPeriods
	if limit <= 0 {
		limit = DefaultMaxPeriods
	}
	limit = min(limit, frame.MaxPeriods)
	if n < 1 || n > limit {
		return fmt.Errorf("%d not in [1, %d]: %w", n, limit, frame.ErrInvalidPeriods)
	}
	return nil
}

// Request is a single prediction request.
type Request struct {
	Segment dataset.Segment
	Periods int
	// Regressors holds user-supplied values keyed by year.
	Regressors map[int]frame.Regressors
}

// Result is the outcome of one prediction pass.
type Result struct {
	Segment            dataset.Segment     `json:"segment"`
	LastHistoricalYear int                 `json:"last_historical_year"`
	Timeline           frame.Timeline      `json:"timeline"`
	Predictions        []model.Prediction  `json:"predictions"`
	Future             []model.Prediction  `json:"future"`
	History            []dataset.YearValue `json:"history"`
}

// Run builds the segment timeline, loads the segment model and predicts over
// the full timeline. Future holds the predictions strictly after the
// segment's last historical year.
func (c *Context) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := c.Logger.With(zap.String("segment", req.Segment.Key()), zap.Int("periods", req.Periods))

	if err := c.CheckPeriods(req.Periods); err != nil {
		return nil, err
	}
	tl, err := frame.Build(req.Segment, c.Dataset, req.Periods, req.Regressors)
	if err != nil {
		return nil, fmt.Errorf("building timeline: %w", err)
	}

	artifact, err := c.Models.Load(ctx, req.Segment)
	if err != nil {
		var notFound *model.ModelNotFoundError
		if errors.As(err, &notFound) {
			log.Warn("no model for segment", zap.String("path", notFound.Path))
		}
		return nil, err
	}

	preds, err := artifact.Predict(tl)
	if err != nil {
		log.Error("prediction failed", zap.Error(err))
		return nil, err
	}

	last, _ := c.Dataset.LastYear(req.Segment)
	res := &Result{
		Segment:            req.Segment,
		LastHistoricalYear: last,
		Timeline:           tl,
		Predictions:        preds,
		Future:             FutureOnly(preds, last),
		History:            c.Dataset.AggregatedVolume(req.Segment),
	}

	log.Info("forecast computed",
		zap.Int("timeline", len(tl)),
		zap.Int("future", len(res.Future)),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// FutureOnly returns the predictions strictly after lastYear, in order.
func FutureOnly(preds []model.Prediction, lastYear int) []model.Prediction {
	var out []model.Prediction
	for _, p := range preds {
		if p.Year > lastYear {
			out = append(out, p)
		}
	}
	return out
}

// FutureYears returns the n years following the segment's last historical year.
func (c *Context) FutureYears(seg dataset.Segment, n int) ([]int, error) {
	if err := c.CheckPeriods(n); err != nil {
		return nil, err
	}
	last, ok := c.Dataset.LastYear(seg)
	if !ok {
		return nil, fmt.Errorf("%s: %w", seg, frame.ErrUnknownSegment)
	}
	years := make([]int, n)
	for i := range years {
		years[i] = last + 1 + i
	}
	return years, nil
}

// DefaultRegressors maps each of the n future years of seg to user values.
// nominal[i] and price[i] apply to the i-th future year; years beyond the
// supplied values fall back to the dataset column means.
func (c *Context) DefaultRegressors(seg dataset.Segment, n int, nominal, price []float64) (map[int]frame.Regressors, error) {
	if err := c.CheckPeriods(n); err != nil {
		return nil, err
	}
	if len(nominal) > n || len(price) > n {
		return nil, fmt.Errorf("got %d nominal and %d price values for %d periods", len(nominal), len(price), n)
	}
	years, err := c.FutureYears(seg, n)
	if err != nil {
		return nil, err
	}

	meanNominal, meanPrice := c.Dataset.MeanNominal(), c.Dataset.MeanPrice()
	out := make(map[int]frame.Regressors, n)
	for i, year := range years {
		r := frame.Regressors{Nominal: meanNominal, Price: meanPrice}
		if i < len(nominal) {
			r.Nominal = nominal[i]
		}
		if i < len(price) {
			r.Price = price[i]
		}
		out[year] = r
	}
	return out, nil
}
