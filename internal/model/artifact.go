// Package model evaluates pre-trained per-segment forecasting artifacts and
// resolves them from the on-disk model store.
//
// An artifact is the JSON export of a fitted additive model: a piecewise
// linear (or flat) trend, Fourier seasonalities and linear regressor terms,
// all on the scaled target. Evaluation reproduces the fitted point forecast:
//
//	t     = (ds - start) / t_scale
//	trend = (k + Σ δ_j) t + (m + Σ -c_j δ_j)   over changepoints c_j <= t
//	yhat  = y_scale * (trend * (1 + multiplicative) + additive)
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sekarsister/prediksi-pembenihan/internal/frame"
)

const (
	GrowthLinear = "linear"
	GrowthFlat   = "flat"

	ModeAdditive       = "additive"
	ModeMultiplicative = "multiplicative"
)

const dateLayout = "2006-01-02"

// Date is a calendar date encoded as "YYYY-MM-DD" (RFC 3339 timestamps are
// accepted on input).
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("invalid date %q", s)
		}
	}
	d.Time = t.UTC()
	return nil
}

// Seasonality is a Fourier seasonal component. Beta holds sin/cos pairs for
// orders 1..FourierOrder.
type Seasonality struct {
	Name         string    `json:"name"`
	PeriodDays   float64   `json:"period_days"`
	FourierOrder int       `json:"fourier_order"`
	Mode         string    `json:"mode"`
	Beta         []float64 `json:"beta"`
}

// Regressor is a standardized linear regressor term.
type Regressor struct {
	Name string  `json:"name"`
	Mu   float64 `json:"mu"`
	Std  float64 `json:"std"`
	Mode string  `json:"mode"`
	Beta float64 `json:"beta"`
}

// Artifact is a fitted per-segment model.
type Artifact struct {
	SpeciesGroup  string        `json:"species_group"`
	Region        string        `json:"region"`
	Growth        string        `json:"growth"`
	Start         Date          `json:"start"`
	TScaleDays    float64       `json:"t_scale_days"`
	YScale        float64       `json:"y_scale"`
	K             float64       `json:"k"`
	M             float64       `json:"m"`
	Changepoints  []Date        `json:"changepoints"`
	Delta         []float64     `json:"delta"`
	Seasonalities []Seasonality `json:"seasonalities"`
	Regressors    []Regressor   `json:"regressors"`
	IntervalWidth float64       `json:"interval_width"`
	SigmaObs      float64       `json:"sigma_obs"`
}

// Prediction is the model output for one timeline year.
type Prediction struct {
	Year  int     `json:"year"`
	Yhat  float64 `json:"yhat"`
	Trend float64 `json:"trend"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

// Time returns the prediction timestamp, 1 January of its year in UTC.
func (p Prediction) Time() time.Time {
	return frame.YearStart(p.Year)
}

// Validate checks the artifact is internally consistent.
func (a *Artifact) Validate() error {
	switch a.Growth {
	case "", GrowthLinear, GrowthFlat:
	default:
		return fmt.Errorf("unsupported growth %q", a.Growth)
	}
	if a.Start.IsZero() {
		return errors.New("start date is required")
	}
	if a.TScaleDays <= 0 {
		return errors.New("t_scale_days must be positive")
	}
	if a.YScale <= 0 {
		return errors.New("y_scale must be positive")
	}
	if len(a.Changepoints) != len(a.Delta) {
		return fmt.Errorf("%d changepoints but %d deltas", len(a.Changepoints), len(a.Delta))
	}
	for _, s := range a.Seasonalities {
		if s.PeriodDays <= 0 || s.FourierOrder < 1 {
			return fmt.Errorf("seasonality %q: period and order must be positive", s.Name)
		}
		if len(s.Beta) != 2*s.FourierOrder {
			return fmt.Errorf("seasonality %q: want %d coefficients, got %d", s.Name, 2*s.FourierOrder, len(s.Beta))
		}
		if err := validateMode(s.Mode); err != nil {
			return fmt.Errorf("seasonality %q: %w", s.Name, err)
		}
	}
	for _, r := range a.Regressors {
		if r.Name == "" {
			return errors.New("regressor name is required")
		}
		if err := validateMode(r.Mode); err != nil {
			return fmt.Errorf("regressor %q: %w", r.Name, err)
		}
	}
	if a.IntervalWidth < 0 || a.IntervalWidth >= 1 {
		return fmt.Errorf("interval_width %v outside [0, 1)", a.IntervalWidth)
	}
	return nil
}

func validateMode(mode string) error {
	switch mode {
	case "", ModeAdditive, ModeMultiplicative:
		return nil
	}
	return fmt.Errorf("unsupported mode %q", mode)
}

// Key returns the segment key the artifact was trained for.
func (a *Artifact) Key() string {
	return strings.ReplaceAll(a.SpeciesGroup, " ", "_") + "_" + strings.ReplaceAll(a.Region, " ", "_")
}

// Predict evaluates the model on every timeline entry, preserving order.
func (a *Artifact) Predict(tl frame.Timeline) ([]Prediction, error) {
	if len(tl) == 0 {
		return nil, &PredictionError{Segment: a.Key(), Err: errors.New("empty timeline")}
	}

	lookups := make([]func(frame.Entry) float64, len(a.Regressors))
	for i, r := range a.Regressors {
		lookup, ok := regressorLookup(r.Name)
		if !ok {
			return nil, &PredictionError{Segment: a.Key(), Err: fmt.Errorf("timeline has no regressor column %q", r.Name)}
		}
		lookups[i] = lookup
	}

	var z float64
	if a.IntervalWidth > 0 && a.SigmaObs > 0 {
		z = distuv.UnitNormal.Quantile(0.5 + a.IntervalWidth/2)
	}

	out := make([]Prediction, len(tl))
	for i, e := range tl {
		ds := e.Time()
		t := a.scaledTime(ds)
		trend := a.trend(t)

		var additive, multiplicative float64
		for _, s := range a.Seasonalities {
			v := floats.Dot(fourier(ds, s.PeriodDays, s.FourierOrder), s.Beta)
			if s.Mode == ModeMultiplicative {
				multiplicative += v
			} else {
				additive += v
			}
		}
		for j, r := range a.Regressors {
			x := lookups[j](e)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, &PredictionError{Segment: a.Key(), Err: fmt.Errorf("year %d: regressor %q is not finite", e.Year, r.Name)}
			}
			std := r.Std
			if std == 0 {
				std = 1
			}
			v := r.Beta * (x - r.Mu) / std
			if r.Mode == ModeMultiplicative {
				multiplicative += v
			} else {
				additive += v
			}
		}

		trendScaled := trend * a.YScale
		yhat := trendScaled*(1+multiplicative) + additive*a.YScale
		if math.IsNaN(yhat) || math.IsInf(yhat, 0) {
			return nil, &PredictionError{Segment: a.Key(), Err: fmt.Errorf("year %d: prediction is not finite", e.Year)}
		}

		half := z * a.SigmaObs * a.YScale
		out[i] = Prediction{
			Year:  e.Year,
			Yhat:  yhat,
			Trend: trendScaled,
			Lower: yhat - half,
			Upper: yhat + half,
		}
	}
	return out, nil
}

func (a *Artifact) scaledTime(ds time.Time) float64 {
	return ds.Sub(a.Start.Time).Hours() / 24 / a.TScaleDays
}

func (a *Artifact) trend(t float64) float64 {
	if a.Growth == GrowthFlat {
		return a.M
	}
	k, m := a.K, a.M
	for j, cp := range a.Changepoints {
		c := a.scaledTime(cp.Time)
		if t >= c {
			k += a.Delta[j]
			m -= c * a.Delta[j]
		}
	}
	return k*t + m
}

// fourier returns [sin(2π·1·t/P), cos(2π·1·t/P), ..., sin(2π·n·t/P), cos(2π·n·t/P)]
// with t in days since the Unix epoch.
func fourier(ds time.Time, period float64, order int) []float64 {
	t := float64(ds.Unix()) / 86400
	out := make([]float64, 0, 2*order)
	for i := 1; i <= order; i++ {
		x := 2 * math.Pi * float64(i) * t / period
		out = append(out, math.Sin(x), math.Cos(x))
	}
	return out
}

func regressorLookup(name string) (func(frame.Entry) float64, bool) {
	switch strings.TrimSpace(name) {
	case frame.RegressorNominal, "nominal_value":
		return func(e frame.Entry) float64 { return e.Nominal }, true
	case frame.RegressorPrice, "weighted_price":
		return func(e frame.Entry) float64 { return e.Price }, true
	}
	return nil, false
}
