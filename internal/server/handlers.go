package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/matzehuels/archflow/pkg/buildinfo"
	"github.com/matzehuels/archflow/pkg/diagram"
	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/pipeline"
	"github.com/matzehuels/archflow/pkg/viewport"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime"`
	Build  buildinfo.Info `json:"build"`
}

// LayoutRequest is the body of POST /v1/layout. Options fall back to the
// server configuration field by field.
type LayoutRequest struct {
	Diagram diagram.Data      `json:"diagram"`
	Options *pipeline.Options `json:"options,omitempty"`
	Format  string            `json:"format,omitempty"`
}

// FitRequest is the body of POST /v1/fit.
type FitRequest struct {
	Nodes    []diagram.Node    `json:"nodes"`
	Edges    []diagram.Edge    `json:"edges"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Insets   viewport.Insets   `json:"insets"`
	Padding  *float64          `json:"padding,omitempty"`
	MinScale *float64          `json:"minScale,omitempty"`
	MaxScale *float64          `json:"maxScale,omitempty"`
	Options  *pipeline.Options `json:"options,omitempty"`
}

// ZoomRequest is the body of POST /v1/zoom.
type ZoomRequest struct {
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Transform viewport.Transform `json:"transform"`
	Factor    float64            `json:"factor"`
	Focal     *diagram.Point     `json:"focal,omitempty"`
	MinScale  *float64           `json:"minScale,omitempty"`
	MaxScale  *float64           `json:"maxScale,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Build:  buildinfo.Get(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	format := req.Format
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.options(req.Options)
	res, err := s.runner.Layout(r.Context(), req.Diagram, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch format {
	case pipeline.FormatJSON:
		writeJSON(w, http.StatusOK, res)
	default:
		out, _, err := s.runner.Render(r.Context(), res, format)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType(format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
	}
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if !s.decode(w, r, &req) {
		return
	}
	fo := s.cfg.FitOptions()
	if req.Padding != nil {
		fo.Padding = *req.Padding
	}
	if req.MinScale != nil {
		fo.MinScale = *req.MinScale
	}
	if req.MaxScale != nil {
		fo.MaxScale = *req.MaxScale
	}
	if err := validateFit(req, fo); err != nil {
		s.writeError(w, err)
		return
	}

	d := diagram.Data{Nodes: req.Nodes, Edges: req.Edges}
	t, err := s.runner.Fit(d, req.Width, req.Height, req.Insets, fo, s.options(req.Options))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req ZoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	zo := s.cfg.ZoomOptions()
	if req.MinScale != nil {
		zo.MinScale = *req.MinScale
	}
	if req.MaxScale != nil {
		zo.MaxScale = *req.MaxScale
	}
	if err := validateZoom(req, zo); err != nil {
		s.writeError(w, err)
		return
	}

	t := viewport.Zoom(diagram.Size{W: req.Width, H: req.Height}, req.Transform, req.Factor, req.Focal, zo)
	writeJSON(w, http.StatusOK, t)
}

// =============================================================================
// Helpers
// =============================================================================

// options merges request options over the configured defaults.
func (s *Server) options(req *pipeline.Options) pipeline.Options {
	base := s.cfg.PipelineOptions()
	if req == nil {
		return base
	}
	o := *req
	if o.Strategy == "" {
		o.Strategy = base.Strategy
	}
	if o.Rankdir == "" {
		o.Rankdir = base.Rankdir
	}
	if o.Density == "" {
		o.Density = base.Density
	}
	if o.UIScale == 0 {
		o.UIScale = base.UIScale
	}
	if o.Nodesep == 0 {
		o.Nodesep = base.Nodesep
	}
	if o.Ranksep == 0 {
		o.Ranksep = base.Ranksep
	}
	if o.Edgesep == 0 {
		o.Edgesep = base.Edgesep
	}
	o.Strict = o.Strict || base.Strict
	return o
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := s.cfg.Server.MaxBodyBytes
	if limit <= 0 {
		limit = 4 << 20
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return false
	}
	return true
}

func validateFit(req FitRequest, fo viewport.FitOptions) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"width", req.Width}, {"height", req.Height}, {"padding", fo.Padding},
		{"inset top", req.Insets.Top}, {"inset right", req.Insets.Right},
		{"inset bottom", req.Insets.Bottom}, {"inset left", req.Insets.Left}} {
		if err := errors.ValidateNonNegative(f.name, f.v); err != nil {
			return err
		}
	}
	return errors.ValidateScaleRange(fo.MinScale, fo.MaxScale)
}

func validateZoom(req ZoomRequest, zo viewport.ZoomOptions) error {
	if err := errors.ValidateNonNegative("width", req.Width); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("height", req.Height); err != nil {
		return err
	}
	if req.Factor <= 0 || errors.ValidateFinite("factor", req.Factor) != nil {
		return errors.New(errors.ErrCodeInvalidOption, "factor must be a positive number")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"x", req.Transform.X}, {"y", req.Transform.Y}, {"scale", req.Transform.Scale}} {
		if err := errors.ValidateFinite(f.name, f.v); err != nil {
			return err
		}
	}
	return errors.ValidateScaleRange(zo.MinScale, zo.MaxScale)
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatYAML:
		return "application/yaml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	if errors.IsInvalid(err) {
		status = http.StatusBadRequest
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}
