package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/vi-mosaic/internal/config"
	"github.com/robert-malhotra/vi-mosaic/internal/engine"
	"github.com/robert-malhotra/vi-mosaic/internal/grid"
	"github.com/robert-malhotra/vi-mosaic/internal/raster"
	"github.com/robert-malhotra/vi-mosaic/internal/stac"
)

// Handlers contains all HTTP handlers for the mosaic service.
type Handlers struct {
	cfg      *config.Config
	engine   *engine.Engine
	products *config.ProductRegistry
	grids    *grid.Registry
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	eng *engine.Engine,
	products *config.ProductRegistry,
	grids *grid.Registry,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:      cfg,
		engine:   eng,
		products: products,
		grids:    grids,
		logger:   logger,
	}
}

// Health returns service liveness.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Landing returns the service descriptor.
// GET /
func (h *Handlers) Landing(w http.ResponseWriter, r *http.Request) {
	base := h.cfg.Server.PublicURL
	WriteJSON(w, http.StatusOK, map[string]any{
		"title":       "VI Mosaic Service",
		"description": "Builds global vegetation-index mosaics from tiled satellite products.",
		"links": []map[string]string{
			{"rel": "self", "href": base + "/"},
			{"rel": "products", "href": base + "/products"},
			{"rel": "mosaics", "href": base + "/mosaics"},
		},
	})
}

// productView is the JSON shape of one capability entry.
type productView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Grid       string `json:"grid"`
	Synthesis  bool   `json:"synthesis"`
	PeriodDays int    `json:"period_days"`
	QARules    int    `json:"qa_rules"`
}

func toProductView(p *config.ProductConfig) productView {
	return productView{
		ID:         p.ID,
		Title:      p.Title,
		Grid:       p.GridID,
		Synthesis:  p.Synthesis,
		PeriodDays: p.PeriodDays,
		QARules:    len(p.QARules),
	}
}

// Products lists the product capability table.
// GET /products
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	all := h.products.All()
	views := make([]productView, 0, len(all))
	for _, p := range all {
		views = append(views, toProductView(p))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"products": views})
}

// Product returns one capability entry.
// GET /products/{productId}
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")
	p, ok := h.products.Get(id)
	if !ok {
		WriteNotFound(w, fmt.Sprintf("product %q not found", id))
		return
	}
	WriteJSON(w, http.StatusOK, toProductView(p))
}

// Grid returns a tiling scheme summary.
// GET /grids/{gridId}
func (h *Handlers) Grid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "gridId")
	g, ok := h.grids.Get(id)
	if !ok {
		WriteNotFound(w, fmt.Sprintf("grid %q not found", id))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"id":           g.ID,
		"cells":        len(g.Cells),
		"total_width":  g.TotalWidth(),
		"total_height": g.TotalHeight(),
		"geo":          g.Geo,
	})
}

// buildRequest is the POST /mosaics body. period_end is optional; the
// product's default window applies when it is omitted.
type buildRequest struct {
	Product     string `json:"product"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end,omitempty"`
}

// buildResponse describes a completed build. The raster itself is not
// serialized; export is the caller's concern.
type buildResponse struct {
	Item          *stac.Item `json:"item"`
	CellsTotal    int        `json:"cells_total"`
	CellsMissing  int        `json:"cells_missing"`
	MissingCells  []string   `json:"missing_cells"`
	ValidFraction float64    `json:"valid_fraction"`
}

// BuildMosaic runs a mosaic build for a product and period.
// POST /mosaics
func (h *Handlers) BuildMosaic(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		WriteBadRequest(w, "failed to read request body")
		return
	}

	var req buildRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteBadRequest(w, "request body must be valid JSON")
		return
	}
	if req.Product == "" {
		WriteInvalidParameter(w, "product is required")
		return
	}

	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		WriteInvalidParameter(w, "period_start must be a YYYY-MM-DD date")
		return
	}

	var end time.Time
	if req.PeriodEnd != "" {
		end, err = time.Parse("2006-01-02", req.PeriodEnd)
		if err != nil {
			WriteInvalidParameter(w, "period_end must be a YYYY-MM-DD date")
			return
		}
	}

	result, err := h.engine.Build(r.Context(), req.Product, start, end)
	if err != nil {
		h.writeBuildError(w, err)
		return
	}

	p, _ := h.products.Get(result.Product)
	g, _ := h.grids.Get(p.GridID)

	item, err := stac.NewItem(result, g, h.cfg.Server.PublicURL)
	if err != nil {
		h.logger.Error("failed to build STAC item", slog.String("error", err.Error()))
		WriteInternalError(w, "failed to describe mosaic")
		return
	}

	WriteJSON(w, http.StatusOK, buildResponse{
		Item:          item,
		CellsTotal:    len(g.Cells),
		CellsMissing:  len(result.MissingCells),
		MissingCells:  result.MissingCells,
		ValidFraction: result.Raster.ValidFraction(),
	})
}

func (h *Handlers) writeBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownProduct):
		WriteNotFound(w, err.Error())
	case errors.Is(err, engine.ErrUnknownGrid):
		WriteInternalError(w, err.Error())
	case errors.Is(err, engine.ErrInvalidPeriod):
		WriteInvalidParameter(w, err.Error())
	case errors.Is(err, raster.ErrGeometryMismatch):
		// The source handed back tiles that do not fit the grid; that
		// is an upstream data fault, not a bad request.
		WriteSourceError(w, err.Error())
	default:
		h.logger.Error("mosaic build failed", slog.String("error", err.Error()))
		WriteInternalError(w, "mosaic build failed")
	}
}
