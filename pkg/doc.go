// Package pkg provides the core libraries for expectedfreq.
//
// # Overview
//
// Expectedfreq turns relative measures of association (odds ratios, risk
// ratios, hazard ratios, percentage changes) into expected frequencies: how
// many people out of, say, 100 have the event with and without a risk
// factor. Results are communicated as icon arrays, plain-language sentences,
// and forest plots.
//
// # Architecture
//
// The typical data flow:
//
//	baseline risk + measure
//	         ↓
//	    [risk] package (absolute risks, expected counts)
//	         ↓
//	    [grid] package (icon placements)
//	         ↓
//	    [chart/isotype], [phrase] (Vega-Lite chart, sentences)
//	         ↓
//	    [render/isotype/sink] (SVG, PNG, PDF, JSON, terminal)
//
// [pipeline] runs these stages for the CLI and the HTTP server, caching
// results and artifacts through [cache].
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/expectedfreq/pkg/pipeline"
//	    "github.com/matzehuels/expectedfreq/pkg/risk"
//	)
//
//	m, _ := risk.ParseMeasure("odds_ratio", 5.21)
//	res, _ := pipeline.ExpectedFrequencies(0.102, m, pipeline.Options{})
//	fmt.Println(res.Frequencies.BaselineCount, res.Frequencies.ExposedCount) // 10 37
//	chart, _ := res.Chart.JSON()
//
// # Main Packages
//
// ## Domain
//
// [risk] - Measure kinds, conversion to the exposed risk, and expected
// frequencies with half-away-from-zero rounding.
//
// [grid] - Row-major icon layout, including partial icons and reduced icons
// for protective exposures.
//
// [phrase] - The two plain-language sentences.
//
// ## Charts
//
// [chart/vegalite] - Typed Vega-Lite v5 specification.
//
// [chart/isotype] - Icon-array charts built from grid placements.
//
// [chart/forest] - Forest plots from long-format tables.
//
// [dataset] - Tables loaded from CSV, JSON, or XLSX.
//
// ## Rendering
//
// [render/isotype/sink] - Native outputs: SVG, PNG, PDF, JSON, terminal.
//
// [render] - SVG to PDF/PNG conversion via rsvg-convert.
//
// ## Infrastructure
//
// [pipeline] - Entry points and the caching Runner shared by CLI and server.
//
// [cache] - File, Redis, and null caches with scoped keys.
//
// [config] - TOML/YAML config files, .env files, and environment overrides.
//
// [errors] - Coded errors shared by the library, CLI, and HTTP server.
//
// [observability] - Hooks for pipeline, cache, and HTTP events.
//
// # Testing
//
//	go test ./...             # All tests
//	go test ./pkg/risk/...    # Specific package
//	go test -run Example ./pkg/...
package pkg
