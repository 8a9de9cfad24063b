package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/bakery-api/internal/bakery"
)

// handleListBakedGoodsByPrice returns every baked good, most expensive first.
func (s *Server) handleListBakedGoodsByPrice(w http.ResponseWriter, r *http.Request) {
	timing := startStoreTiming(r, "list baked goods by price")
	goods, err := s.repo.ListBakedGoodsByPrice(r.Context())
	timing.Stop()
	if err != nil {
		s.logStoreError(r, "listing baked goods by price", err)
		writeInternalError(w)
		return
	}
	writeEntityJSON(w, goods)
}

// handleMostExpensiveBakedGood returns the single highest-priced baked good.
func (s *Server) handleMostExpensiveBakedGood(w http.ResponseWriter, r *http.Request) {
	timing := startStoreTiming(r, "most expensive baked good")
	good, err := s.repo.GetMostExpensiveBakedGood(r.Context())
	timing.Stop()
	if err != nil {
		if errors.Is(err, bakery.ErrNoBakedGoods) {
			writeNotFound(w, msgNoBakedGoodsFound)
			return
		}
		s.logStoreError(r, "getting most expensive baked good", err)
		writeInternalError(w)
		return
	}
	writeEntityJSON(w, good)
}
