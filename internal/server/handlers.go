package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sekarsister/prediksi-pembenihan/internal/dataset"
	"github.com/sekarsister/prediksi-pembenihan/internal/forecast"
	"github.com/sekarsister/prediksi-pembenihan/internal/frame"
	"github.com/sekarsister/prediksi-pembenihan/internal/model"
	"github.com/sekarsister/prediksi-pembenihan/internal/report"
)

type segmentInfo struct {
	dataset.Segment
	Key            string `json:"key"`
	LastYear       int    `json:"last_year"`
	ModelAvailable bool   `json:"model_available"`
}

type segmentsResponse struct {
	SpeciesGroups []string      `json:"species_groups"`
	Regions       []string      `json:"regions"`
	MaxYear       int           `json:"max_year"`
	Segments      []segmentInfo `json:"segments"`
}

type regressorInput struct {
	Year          int      `json:"year"`
	NominalValue  *float64 `json:"nominal_value"`
	WeightedPrice *float64 `json:"weighted_price"`
}

type forecastRequest struct {
	SpeciesGroup string           `json:"species_group"`
	Region       string           `json:"region"`
	Periods      int              `json:"periods"`
	Regressors   []regressorInput `json:"regressors"`
}

type validationResponse struct {
	Source        string   `json:"source"`
	Rows          int      `json:"rows"`
	Segments      int      `json:"segments"`
	SpeciesGroups []string `json:"species_groups"`
	Regions       []string `json:"regions"`
	MaxYear       int      `json:"max_year"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) segments(c echo.Context) error {
	table := s.fc.Dataset

	resp := segmentsResponse{
		SpeciesGroups: table.SpeciesGroups(),
		Regions:       table.Regions(),
		MaxYear:       table.MaxYear(),
	}
	for _, seg := range table.Segments() {
		last, _ := table.LastYear(seg)
		info := segmentInfo{Segment: seg, Key: seg.Key(), LastYear: last}
		if s.catalog != nil {
			info.ModelAvailable = s.catalog.Exists(seg)
		}
		resp.Segments = append(resp.Segments, info)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) forecast(c echo.Context) error {
	res, err := s.runForecast(c)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) forecastChart(c echo.Context) error {
	res, err := s.runForecast(c)
	if err != nil {
		return s.writeError(c, err)
	}

	var buf bytes.Buffer
	if err := report.WriteChart(&buf, res); err != nil {
		s.logger.Error("chart rendering failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "chart rendering failed")
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) runForecast(c echo.Context) (*forecast.Result, error) {
	var req forecastRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.SpeciesGroup == "" || req.Region == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "species_group and region are required")
	}
	if req.Periods == 0 {
		req.Periods = s.defaultPeriods
	}

	seg := dataset.Segment{SpeciesGroup: req.SpeciesGroup, Region: req.Region}
	if err := s.fc.CheckPeriods(req.Periods); err != nil {
		return nil, err
	}

	regs, err := s.fc.DefaultRegressors(seg, req.Periods, nil, nil)
	if err != nil {
		return nil, err
	}
	for _, in := range req.Regressors {
		r, ok := regs[in.Year]
		if !ok {
			r = frame.Regressors{Nominal: s.fc.Dataset.MeanNominal(), Price: s.fc.Dataset.MeanPrice()}
		}
		if in.NominalValue != nil {
			r.Nominal = *in.NominalValue
		}
		if in.WeightedPrice != nil {
			r.Price = *in.WeightedPrice
		}
		regs[in.Year] = r
	}

	start := time.Now()
	res, err := s.fc.Run(c.Request().Context(), forecast.Request{Segment: seg, Periods: req.Periods, Regressors: regs})
	s.metrics.forecastSeconds.Observe(time.Since(start).Seconds())
	s.metrics.forecasts.WithLabelValues(outcome(err)).Inc()
	return res, err
}

func (s *Server) validateDataset(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	format, err := dataset.FormatFromPath(fh.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
	}
	defer src.Close()

	table, err := dataset.Read(src, fh.Filename, format, dataset.Options{})
	if err != nil {
		var missing *dataset.MissingColumnsError
		if errors.As(err, &missing) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error":           err.Error(),
				"missing_columns": missing.Missing,
			})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, validationResponse{
		Source:        fh.Filename,
		Rows:          table.Len(),
		Segments:      len(table.Segments()),
		SpeciesGroups: table.SpeciesGroups(),
		Regions:       table.Regions(),
		MaxYear:       table.MaxYear(),
	})
}

func (s *Server) writeError(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var (
		notFound *model.ModelNotFoundError
		predErr  *model.PredictionError
		artErr   *model.ArtifactError
		gapErr   *frame.UnresolvedRegressorGapError
	)
	switch {
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, map[string]string{"warning": err.Error()})
	case errors.Is(err, frame.ErrUnknownSegment):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, frame.ErrInvalidPeriods), errors.Is(err, frame.ErrNegativeRegressor):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &predErr), errors.As(err, &artErr), errors.As(err, &gapErr):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	s.logger.Error("forecast failed", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func outcome(err error) string {
	var notFound *model.ModelNotFoundError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &notFound):
		return "model_not_found"
	}
	return "error"
}
