package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/bakery-api/internal/bakery"
)

// handleListBakeries returns every bakery as a JSON array.
func (s *Server) handleListBakeries(w http.ResponseWriter, r *http.Request) {
	timing := startStoreTiming(r, "list bakeries")
	bakeries, err := s.repo.ListBakeries(r.Context())
	timing.Stop()
	if err != nil {
		s.logStoreError(r, "listing bakeries", err)
		writeInternalError(w)
		return
	}
	writeEntityJSON(w, bakeries)
}

// handleGetBakery returns a single bakery with its baked goods nested.
func (s *Server) handleGetBakery(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		// Digits only, so this is an overflow. No row can have that ID.
		writeNotFound(w, msgBakeryNotFound)
		return
	}

	timing := startStoreTiming(r, "get bakery")
	detail, err := s.repo.GetBakery(r.Context(), id)
	timing.Stop()
	if err != nil {
		if errors.Is(err, bakery.ErrBakeryNotFound) {
			writeNotFound(w, msgBakeryNotFound)
			return
		}
		s.logStoreError(r, "getting bakery", err, "bakery_id", id)
		writeInternalError(w)
		return
	}
	writeEntityJSON(w, detail)
}

// logStoreError records a repository failure with the request's ID.
func (s *Server) logStoreError(r *http.Request, op string, err error, args ...any) {
	attrs := append([]any{"op", op, "error", err}, args...)
	s.logger.Request(requestIDFromContext(r.Context())).Error("store query failed", attrs...)
}
