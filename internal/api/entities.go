package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// handleListEntities returns the IDs of every entity the feed has seen.
//
// Diagnostic endpoint: useful for verifying the statestream automation
// is actually mirroring the entities the proxies are configured with.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	ids := s.registry.Entities()
	sort.Strings(ids)

	writeJSON(w, http.StatusOK, map[string]any{
		"entities": ids,
		"count":    len(ids),
	})
}

// handleGetEntity returns the last known record for one entity.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, ok := s.registry.Get(id)
	if !ok {
		writeNotFound(w, "entity not seen on statestream")
		return
	}

	writeJSON(w, http.StatusOK, record)
}
