package handler

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"molehunt/internal/content"
)

// PacksHandler serves the location-pack catalog
type PacksHandler struct {
	provider *content.Provider
}

// NewPacksHandler creates a new packs handler
func NewPacksHandler(provider *content.Provider) *PacksHandler {
	return &PacksHandler{provider: provider}
}

type packSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Locations int    `json:"locations"`
}

// List handles GET /v1/packs
func (h *PacksHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.provider.PackIDs()
	sort.Strings(ids)

	summaries := make([]packSummary, 0, len(ids))
	for _, id := range ids {
		pack, ok := h.provider.Pack(id)
		if !ok {
			continue
		}
		summaries = append(summaries, packSummary{
			ID:        pack.ID,
			Name:      pack.Name,
			Locations: len(pack.Locations),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Locations handles GET /v1/packs/{id}/locations. It serves only the public
// id+name list; role data stays out of the catalog surface.
func (h *PacksHandler) Locations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.provider.Has(id) {
		writeError(w, http.StatusNotFound, "unknown pack")
		return
	}
	writeJSON(w, http.StatusOK, h.provider.LocationList(id))
}
