// Package server provides a public API for embedding the VI mosaic service.
package server

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/vi-mosaic/internal/api"
	"github.com/robert-malhotra/vi-mosaic/internal/composite"
	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/engine"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/source"
)

// Options configures an embedded mosaic service.
type Options struct {
	// Source supplies decoded tiles (required).
	Source source.TileSource

	// PublicURL is the public-facing URL used in self links.
	// Default: "http://localhost:8080"
	PublicURL string

	// Concurrency bounds the per-cell worker pool. Default: 4.
	Concurrency int

	// Rule names the compositing selection rule. Default: "max-value".
	Rule string

	// ProductsDir optionally points at extra product capability JSON
	// files merged over the built-in table.
	ProductsDir string

	// Logger receives structured logs. Default: a discarding logger.
	Logger *slog.Logger
}

// Server bundles a ready-to-mount router with the engine behind it.
// Embedders who want rasters rather than metadata call Engine.Build
// directly.
type Server struct {
	Engine   *engine.Engine
	Router   chi.Router
	Products *config.ProductRegistry
	Grids    *grid.Registry
}

// New assembles an embedded mosaic service from options.
func New(opts Options) (*Server, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("server: a tile source is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rule := composite.ByName(opts.Rule)
	if rule == nil {
		return nil, fmt.Errorf("server: unknown compositing rule %q", opts.Rule)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = "http://localhost:8080"
	}

	products := config.NewProductRegistry()
	if opts.ProductsDir != "" {
		if err := products.LoadProducts(opts.ProductsDir); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
	}
	grids := grid.NewRegistry()

	eng := engine.New(products, grids, opts.Source, logger).
		WithRule(rule).
		WithConcurrency(concurrency)

	cfg := &config.Config{}
	cfg.Server.PublicURL = publicURL

	handlers := api.NewHandlers(cfg, eng, products, grids, logger)
	router := api.NewRouter(handlers, logger)

	return &Server{
		Engine:   eng,
		Router:   router,
		Products: products,
		Grids:    grids,
	}, nil
}
