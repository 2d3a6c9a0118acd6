package catalog

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/elhueso/huesobot/internal/middleware"
	catalogService "github.com/elhueso/huesobot/internal/service/catalog"
	"github.com/elhueso/huesobot/pkg/utils"
)

// Handler exposes the product catalog over HTTP.
type Handler struct {
	products      *catalogService.Service
	renderer      *catalogService.Renderer
	adminPassword string
}

// New creates the catalog handler.
func New(products *catalogService.Service, renderer *catalogService.Renderer, adminPassword string) *Handler {
	return &Handler{
		products:      products,
		renderer:      renderer,
		adminPassword: adminPassword,
	}
}

// RegisterRoutes registers the product routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/catalog.pdf", h.handleCatalogPDF)
		r.With(middleware.AdminGuard(h.adminPassword)).Get("/clear-cache", h.handleClearCache)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Products(r.Context())
	if err != nil {
		log.Printf("[products] list: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

func (h *Handler) handleCatalogPDF(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Products(r.Context())
	if err != nil {
		log.Printf("[products] catalog fetch: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}

	pdf, err := h.renderer.Catalog(products)
	if err != nil {
		log.Printf("[products] catalog render: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to render catalog")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="catalogo-el-hueso.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("[products] catalog write: %v", err)
	}
}

func (h *Handler) handleClearCache(w http.ResponseWriter, r *http.Request) {
	h.products.ClearCache()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Product cache cleared."})
}
