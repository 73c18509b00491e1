package cli

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := newLogger(io.Discard, log.InfoLevel)
	s := &server{
		runner: pipeline.NewRunner(nil, nil, logger),
		logger: logger,
	}
	return s.handler(nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || got.Build.Version == "" {
		t.Errorf("health = %+v", got)
	}
}

func TestFrequencies(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet,
		"/v1/frequencies?baseline=0.102&measure=or&value=5.21&event=flu", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got struct {
		Frequencies struct {
			BaselineCount int `json:"baseline_count"`
			ExposedCount  int `json:"exposed_count"`
		} `json:"frequencies"`
		Chart map[string]any `json:"chart"`
		Text  struct {
			Exposed string `json:"exposed"`
		} `json:"text"`
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Frequencies.BaselineCount != 10 || got.Frequencies.ExposedCount != 37 {
		t.Errorf("counts = %d/%d, want 10/37", got.Frequencies.BaselineCount, got.Frequencies.ExposedCount)
	}
	if got.Chart["$schema"] == nil {
		t.Error("chart missing $schema")
	}
	if !strings.Contains(got.Text.Exposed, "expect 37 of them to also have flu") {
		t.Errorf("text = %q", got.Text.Exposed)
	}
	if got.Hash == "" {
		t.Error("missing hash")
	}
}

func TestFrequenciesHugeOddsRatio(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet,
		"/v1/frequencies?baseline=0.9&measure=or&value=1.7e308", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var got struct {
		Frequencies struct {
			ExposedCount int     `json:"exposed_count"`
			ExposedRisk  float64 `json:"exposed_risk"`
		} `json:"frequencies"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Frequencies.ExposedCount != 100 || got.Frequencies.ExposedRisk != 1 {
		t.Errorf("frequencies = %+v, want every exposed person affected", got.Frequencies)
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	s := &server{logger: newLogger(io.Discard, log.InfoLevel)}
	rec := httptest.NewRecorder()
	s.writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, math.NaN())

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != errors.ErrCodeInternal || body.Error.Message != "internal error" {
		t.Errorf("error body = %+v", body.Error)
	}
}

func TestFrequenciesErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		code   errors.Code
	}{
		{"missing baseline", "/v1/frequencies?value=2", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"non-numeric value", "/v1/frequencies?baseline=0.1&value=abc", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"baseline out of range", "/v1/frequencies?baseline=1.5&value=2", http.StatusBadRequest, errors.ErrCodeOutOfRange},
		{"unknown kind", "/v1/frequencies?baseline=0.1&measure=d&value=2", http.StatusBadRequest, errors.ErrCodeUnknownMeasureKind},
		{"negative ratio", "/v1/frequencies?baseline=0.1&value=-2", http.StatusBadRequest, errors.ErrCodeInvalidMeasure},
		{"reject bounds", "/v1/frequencies?baseline=0.6&measure=rr&value=2&bounds=reject", http.StatusBadRequest, errors.ErrCodeInvalidRiskBounds},
		{"unknown format", "/v1/frequencies/gif?baseline=0.1&value=2", http.StatusNotFound, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			var body errorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestArtifact(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"svg", "image/svg+xml", "<svg"},
		{"txt", "text/plain; charset=utf-8", "Out of 100"},
		{"vegalite", "application/vnd.vegalite.v5+json", "{"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/v1/frequencies/"+tt.format+"?baseline=0.437&value=0.36", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("body starts with %q, want %q", rec.Body.String()[:min(20, rec.Body.Len())], tt.prefix)
			}
			if rec.Header().Get("X-Cache") != "MISS" {
				t.Errorf("X-Cache = %q, want MISS without a cache", rec.Header().Get("X-Cache"))
			}
		})
	}
}

func TestForest(t *testing.T) {
	h := newTestServer(t)

	body := `{
		"data": [
			{"model": "IPW", "or": 1.4, "lo": 1.1, "hi": 1.8},
			{"model": "Matching", "or": 1.2, "lo": 0.9, "hi": 1.6}
		],
		"options": {"x": "or", "y": "model", "lower": "lo", "upper": "hi", "neutral": 1}
	}`
	rec := do(t, h, http.MethodPost, "/v1/forest", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var spec map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatal(err)
	}
	if spec["$schema"] == nil {
		t.Error("forest spec missing $schema")
	}

	t.Run("missing column", func(t *testing.T) {
		bad := strings.Replace(body, `"y": "model"`, `"y": "outcome"`, 1)
		rec := do(t, h, http.MethodPost, "/v1/forest", bad)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("text with facets", func(t *testing.T) {
		bad := strings.Replace(body, `"neutral": 1`, `"with_text": true, "hue": "model"`, 1)
		rec := do(t, h, http.MethodPost, "/v1/forest", bad)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/v1/forest", `{"data": `)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCORS(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeOutOfRange, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
