package cli

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/expectedfreq/pkg/buildinfo"
	"github.com/matzehuels/expectedfreq/pkg/cache"
	"github.com/matzehuels/expectedfreq/pkg/chart/forest"
	"github.com/matzehuels/expectedfreq/pkg/dataset"
	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/observability"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
	"github.com/matzehuels/expectedfreq/pkg/render"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

const (
	// maxBodyBytes bounds POST bodies.
	maxBodyBytes = 4 << 20

	shutdownTimeout = 10 * time.Second
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatVegaLite: "application/vnd.vegalite.v5+json",
	pipeline.FormatSVG:      "image/svg+xml",
	pipeline.FormatPNG:      "image/png",
	pipeline.FormatPDF:      "application/pdf",
	pipeline.FormatJSON:     "application/json",
	pipeline.FormatText:     "text/plain; charset=utf-8",
}

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve expected frequencies over HTTP",
		Long: `Serve starts an HTTP API:

  GET  /healthz                      version and converter status
  GET  /v1/frequencies               counts, chart, and sentences as JSON
  GET  /v1/frequencies/{format}      one artifact (vegalite, svg, png, pdf, json, txt)
  POST /v1/forest                    forest plot from {"data": [...], "options": {...}}

Frequencies take query parameters: baseline, measure, value, and optionally
population, precision, population_name, event, risk_factor, followup,
plot_text, fractional, bounds, exact_hazard.`,
		Example: `  expectedfreq serve --addr :8080
  curl 'localhost:8080/v1/frequencies/svg?baseline=0.102&measure=or&value=5.21'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.config.Server.Addr
			}
			ctx := cmd.Context()
			observability.SetHTTPHooks(observability.NewLogHooks(c.Logger))

			runner := pipeline.NewRunner(c.newCache(ctx, noCache), cache.NewScopedKeyer(nil, apiKeyPrefix), c.Logger)
			defer runner.Close()

			s := &server{runner: runner, defaults: c.config.PipelineOptions(), logger: c.Logger}
			return s.listenAndServe(ctx, addr, c.config.Server.AllowedOrigins)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// =============================================================================
// Server
// =============================================================================

// server handles API requests with a shared runner.
type server struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger
}

func (s *server) listenAndServe(ctx context.Context, addr string, origins []string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "listen on %s", addr)
	}

	srv := &http.Server{
		Handler:           s.handler(origins),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	printSuccess("Listening on %s", ln.Addr())
	printDetail("Press Ctrl+C to stop")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// handler builds the router wrapped in CORS.
func (s *server) handler(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/frequencies", s.handleFrequencies)
		r.Get("/frequencies/{format}", s.handleArtifact)
		r.Post("/forest", s.handleForest)
	})

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Origin"},
		ExposedHeaders: []string{"Content-Length", "Content-Type", "X-Cache"},
	}).Handler(r)
}

// observe reports each request to the HTTP hooks and attaches a request
// scoped logger to the context.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))

		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status    string         `json:"status"`
	Build     buildinfo.Info `json:"build"`
	Converter bool           `json:"converter"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Build:     buildinfo.Get(),
		Converter: render.Available(),
	})
}

func (s *server) handleFrequencies(w http.ResponseWriter, r *http.Request) {
	req, err := parseFrequencyRequest(r, s.defaults)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Options.Formats = []string{pipeline.FormatVegaLite}

	out, err := s.runner.Execute(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(chi.URLParam(r, "format"))
	if !pipeline.ValidFormats[format] {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "unknown format %q", format))
		return
	}
	req, err := parseFrequencyRequest(r, s.defaults)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Options.Formats = []string{format}

	out, err := s.runner.Execute(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Cache", cacheHeader(out.CacheInfo.RenderHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Artifacts[format])
}

// forestRequest is the body of POST /v1/forest. Data is an array of flat
// objects; column order follows the keys of the first object.
type forestRequest struct {
	Data    json.RawMessage `json:"data"`
	Options forest.Options  `json:"options"`
}

func (s *server) handleForest(w http.ResponseWriter, r *http.Request) {
	var body forestRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode body"))
		return
	}
	if len(body.Data) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "data is required"))
		return
	}
	table, err := dataset.ReadJSON(strings.NewReader(string(body.Data)))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, cached, err := s.runner.Forest(r.Context(), table, body.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatVegaLite])
	w.Header().Set("X-Cache", cacheHeader(cached))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Request Parsing
// =============================================================================

// parseFrequencyRequest reads a frequency request from query parameters on
// top of the server defaults.
func parseFrequencyRequest(r *http.Request, defaults pipeline.Options) (pipeline.Request, error) {
	q := r.URL.Query()
	req := pipeline.Request{Options: defaults}

	var err error
	if req.Baseline, err = requiredFloat(q.Get("baseline"), "baseline"); err != nil {
		return req, err
	}
	value, err := requiredFloat(q.Get("value"), "value")
	if err != nil {
		return req, err
	}
	kind := q.Get("measure")
	if kind == "" {
		kind = risk.OddsRatio.String()
	}
	if req.Measure, err = risk.ParseMeasure(kind, value); err != nil {
		return req, err
	}

	opts := &req.Options
	if v := q.Get("population"); v != "" {
		if opts.PopulationSize, err = strconv.Atoi(v); err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "population must be an integer, got %q", v)
		}
	}
	if v := q.Get("precision"); v != "" {
		if opts.Precision, err = strconv.Atoi(v); err != nil {
			return req, errors.New(errors.ErrCodeInvalidInput, "precision must be an integer, got %q", v)
		}
	}
	if v := q.Get("bounds"); v != "" {
		if opts.Bounds, err = risk.ParseBounds(v); err != nil {
			return req, err
		}
	}
	for name, dst := range map[string]*bool{
		"plot_text":    &opts.PlotText,
		"fractional":   &opts.FractionalIcons,
		"exact_hazard": &opts.ExactHazard,
	} {
		if v := q.Get(name); v != "" {
			if *dst, err = strconv.ParseBool(v); err != nil {
				return req, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
			}
		}
	}
	for name, dst := range map[string]*string{
		"population_name": &opts.Description.PopulationName,
		"event":           &opts.Description.EventName,
		"risk_factor":     &opts.Description.RiskFactorName,
		"followup":        &opts.Description.FollowupDuration,
	} {
		if q.Has(name) {
			*dst = q.Get(name)
		}
	}
	return req, nil
}

func requiredFloat(s, name string) (float64, error) {
	if s == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s is required", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a number, got %q", name, s)
	}
	return v, nil
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound), errors.Is(err, errors.ErrCodeFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)

	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		loggerFromContext(r.Context()).Error("request failed", "err", err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		msg = "internal error"
	}
	s.writeJSON(w, r, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// writeJSON encodes v before writing the status, so an encoding failure
// becomes a 500 instead of an empty response.
func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
