package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/expectedfreq/pkg/cache"
	"github.com/matzehuels/expectedfreq/pkg/chart/forest"
	"github.com/matzehuels/expectedfreq/pkg/dataset"
	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/observability"
	"github.com/matzehuels/expectedfreq/pkg/risk"
)

// Runner renders pipeline artifacts through a cache. The CLI and the HTTP
// server share it.
//
// The Runner holds no per-request state, so multiple goroutines can use the
// same Runner with different requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Refresh skips cache reads; results are still written.
	Refresh bool
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keyer, and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Request is one expected-frequency computation.
type Request struct {
	Baseline float64      `json:"baseline_risk"`
	Measure  risk.Measure `json:"measure"`
	Options  Options      `json:"options"`
}

// Output is the result of [Runner.Execute].
type Output struct {
	*Result

	// Hash identifies the request, independent of the output formats.
	Hash string `json:"hash"`

	// Artifacts holds the rendered outputs keyed by format.
	Artifacts map[string][]byte `json:"-"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// Stats contains execution timings.
type Stats struct {
	ConvertTime time.Duration `json:"convert_ns"`
	LayoutTime  time.Duration `json:"layout_ns"`
	RenderTime  time.Duration `json:"render_ns"`
}

// CacheInfo tracks which stages hit the cache.
type CacheInfo struct {
	ResultHit bool `json:"result_hit"` // frequencies came from cache
	RenderHit bool `json:"render_hit"` // every artifact came from cache
}

// Execute runs convert → layout → render for req.
func (r *Runner) Execute(ctx context.Context, req Request) (*Output, error) {
	opts := req.Options
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := req.Measure.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	hash, err := requestHash(req.Baseline, req.Measure, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash request")
	}
	out := &Output{Hash: hash}

	// Stage 1: Convert
	start := time.Now()
	f, hit, err := r.convert(ctx, hash, req, opts)
	if err != nil {
		return nil, err
	}
	out.Stats.ConvertTime = time.Since(start)
	out.CacheInfo.ResultHit = hit
	logger.Info("computed frequencies",
		"measure", req.Measure.Kind,
		"baseline", f.BaselineCount,
		"exposed", f.ExposedCount,
		"population", f.Population,
		"cached", hit)

	// Stage 2: Layout
	start = time.Now()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, f.Population)
	cells, err := layout(f, opts)
	if err == nil {
		out.Result, err = assemble(f, cells, opts)
	}
	out.Stats.LayoutTime = time.Since(start)
	hooks.OnLayoutComplete(ctx, f.Population, out.Stats.LayoutTime, err)
	if err != nil {
		return nil, err
	}

	// Stage 3: Render
	start = time.Now()
	hooks.OnRenderStart(ctx, opts.Formats)
	out.Artifacts, out.CacheInfo.RenderHit, err = r.render(ctx, hash, out.Result, opts.Formats)
	out.Stats.RenderTime = time.Since(start)
	hooks.OnRenderComplete(ctx, opts.Formats, out.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	logger.Info("rendered outputs", "formats", opts.Formats, "duration", out.Stats.RenderTime)
	return out, nil
}

// convert computes frequencies, reusing a cached result when present.
func (r *Runner) convert(ctx context.Context, hash string, req Request, opts Options) (risk.Frequencies, bool, error) {
	key := r.Keyer.ResultKey(hash)
	if f, ok := r.cachedFrequencies(ctx, key); ok {
		return f, true, nil
	}

	hooks := observability.Pipeline()
	kind := req.Measure.Kind.String()
	start := time.Now()
	hooks.OnConvertStart(ctx, kind)
	f, err := convert(req.Baseline, req.Measure, opts)
	hooks.OnConvertComplete(ctx, kind, time.Since(start), err)
	if err != nil {
		return risk.Frequencies{}, false, err
	}

	if data, err := json.Marshal(f); err == nil {
		r.store(ctx, "result", key, data)
	}
	return f, false, nil
}

func (r *Runner) cachedFrequencies(ctx context.Context, key string) (risk.Frequencies, bool) {
	data, ok := r.lookup(ctx, "result", key)
	if !ok {
		return risk.Frequencies{}, false
	}
	var f risk.Frequencies
	if err := json.Unmarshal(data, &f); err != nil {
		return risk.Frequencies{}, false
	}
	return f, true
}

// render produces every format concurrently. Cached artifacts are reused
// per format.
func (r *Runner) render(ctx context.Context, hash string, res *Result, formats []string) (map[string][]byte, bool, error) {
	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(formats))
		allHit    = true
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, format := range formats {
		g.Go(func() error {
			key := r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: format, Kind: "isotype"})
			data, hit := r.lookup(gctx, "artifact", key)
			if !hit {
				var err error
				if data, err = Render(gctx, res, format); err != nil {
					return err
				}
				r.store(gctx, "artifact", key, data)
			}

			mu.Lock()
			defer mu.Unlock()
			artifacts[format] = data
			allHit = allHit && hit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return artifacts, allHit, nil
}

// Forest builds a forest plot and returns its Vega-Lite JSON, caching by a
// hash of the table and options.
func (r *Runner) Forest(ctx context.Context, t *dataset.Table, opts forest.Options) ([]byte, bool, error) {
	hash, err := cache.HashJSON(struct {
		Table   *dataset.Table `json:"table"`
		Options forest.Options `json:"options"`
	}{t, opts})
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "hash forest request")
	}
	key := r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{Format: FormatVegaLite, Kind: "forest"})
	if data, ok := r.lookup(ctx, "artifact", key); ok {
		return data, true, nil
	}

	hooks := observability.Pipeline()
	formats := []string{FormatVegaLite}
	start := time.Now()
	hooks.OnRenderStart(ctx, formats)
	spec, err := ForestPlot(t, opts)
	var data []byte
	if err == nil {
		data, err = spec.JSON()
	}
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, "artifact", key, data)
	return data, false, nil
}

// lookup reads key from the cache. Errors count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string) ([]byte, bool) {
	if r.Refresh {
		return nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", keyType, "err", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return nil, false
}

// store writes key to the cache. Errors are logged and dropped.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// requestHash identifies a computation independent of output formats.
func requestHash(baseline float64, m risk.Measure, opts Options) (string, error) {
	opts.Formats = nil
	return cache.HashJSON(Request{Baseline: baseline, Measure: m, Options: opts})
}
