package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SetupMarketplaceRoutes wires the marketplace handler into a chi router.
// Mutating routes require a JWT caller identity; reads are public.
func SetupMarketplaceRoutes(mux *chi.Mux, h *MarketplaceHandler, jwtSecret string, logger *zap.Logger) {
	mux.Use(RequestLogger(logger))

	mux.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret, logger))

		r.Post("/api/items/721", h.CreateItem721)
		r.Post("/api/items/1155", h.CreateItem1155)
		r.Post("/api/items/withdrawal", h.WithdrawItem)

		r.Post("/api/listings", h.ListItem)
		r.Post("/api/listings/native", h.ListItemNative)
		r.Delete("/api/listings", h.CancelListing)

		r.Post("/api/purchases", h.BuyItem)

		r.Post("/api/auctions", h.StartAuction)
		r.Post("/api/auctions/bids", h.PlaceBid)
		r.Post("/api/auctions/settlement", h.SettleAuction)
		r.Delete("/api/auctions", h.CancelAuction)
	})

	mux.Get("/api/items/{collection}/{id}", h.GetItem)
	mux.Get("/api/auctions/{collection}/{id}", h.GetAuction)
}
