package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/NiceArti/Marketplace/internal/adapter/token"
	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/marketplace/usecase"
	"github.com/NiceArti/Marketplace/internal/platform/metrics"
)

// MarketplaceHandler exposes the marketplace operations over HTTP. All
// uint256 fields travel as decimal strings.
type MarketplaceHandler struct {
	uc      *usecase.MarketplaceUseCase
	metrics *metrics.MetricsManager
	logger  *zap.Logger
}

func NewMarketplaceHandler(uc *usecase.MarketplaceUseCase, mm *metrics.MetricsManager, logger *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{uc: uc, metrics: mm, logger: logger}
}

type itemRequest struct {
	Collection   string `json:"collection"`
	TokenID      uint64 `json:"token_id"`
	PaymentToken string `json:"payment_token,omitempty"`
	Price        string `json:"price,omitempty"`
	Amount       string `json:"amount,omitempty"`
	MinBid       string `json:"min_bid,omitempty"`
	PaidNative   string `json:"paid_native,omitempty"`
}

type itemKeyResponse struct {
	Collection string `json:"collection"`
	TokenID    uint64 `json:"token_id"`
}

type generalInfoResponse struct {
	Owner         string `json:"owner"`
	IsInternal    bool   `json:"is_internal"`
	Listed        bool   `json:"listed"`
	TokenToBuy    string `json:"token_to_buy"`
	Price         string `json:"price"`
	Amount        string `json:"amount"`
	SellForNative bool   `json:"sell_for_native"`
}

type auctionInfoResponse struct {
	LastBidder     string `json:"last_bidder"`
	LastBid        string `json:"last_bid"`
	EndTime        string `json:"end_time"`
	BidMinStandard string `json:"bid_min_standard"`
}

func (h *MarketplaceHandler) CreateItem721(w http.ResponseWriter, r *http.Request) {
	defer h.observe("CreateItem721")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}

	key, err := h.uc.CreateItem721(r.Context(), caller)
	if err != nil {
		h.respondError(w, "CreateItem721", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ItemsCreatedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, itemKeyResponse{Collection: string(key.Collection), TokenID: key.TokenID})
}

func (h *MarketplaceHandler) CreateItem1155(w http.ResponseWriter, r *http.Request) {
	defer h.observe("CreateItem1155")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := parseU256(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	key, err := h.uc.CreateItem1155(r.Context(), caller, amount)
	if err != nil {
		h.respondError(w, "CreateItem1155", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ItemsCreatedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, itemKeyResponse{Collection: string(key.Collection), TokenID: key.TokenID})
}

func (h *MarketplaceHandler) ListItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("ListItem")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := parseU256(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	amount, err := parseU256(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	err = h.uc.ListItem(r.Context(), caller, domain.Address(req.Collection), req.TokenID, domain.Address(req.PaymentToken), price, amount)
	if err != nil {
		h.respondError(w, "ListItem", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) ListItemNative(w http.ResponseWriter, r *http.Request) {
	defer h.observe("ListItemNative")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := parseU256(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	amount, err := parseU256(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	err = h.uc.ListItemETH(r.Context(), caller, domain.Address(req.Collection), req.TokenID, price, amount)
	if err != nil {
		h.respondError(w, "ListItemNative", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	defer h.observe("CancelListing")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.uc.CancelListing(r.Context(), caller, domain.Address(req.Collection), req.TokenID); err != nil {
		h.respondError(w, "CancelListing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) BuyItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("BuyItem")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var paidNative *uint256.Int
	if req.PaidNative != "" {
		var err error
		paidNative, err = parseU256(req.PaidNative)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid paid_native")
			return
		}
	}

	if err := h.uc.BuyItem(r.Context(), caller, domain.Address(req.Collection), req.TokenID, paidNative); err != nil {
		h.respondError(w, "BuyItem", err)
		return
	}
	if h.metrics != nil {
		h.metrics.SalesTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) StartAuction(w http.ResponseWriter, r *http.Request) {
	defer h.observe("StartAuction")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, err := parseU256(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	amount, err := parseU256(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	minBid, err := parseU256(req.MinBid)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid min_bid")
		return
	}

	err = h.uc.ListItemOnAuction(r.Context(), caller, domain.Address(req.Collection), req.TokenID, domain.Address(req.PaymentToken), price, amount, minBid)
	if err != nil {
		h.respondError(w, "StartAuction", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ListingsCreatedTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	defer h.observe("PlaceBid")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bid, err := parseU256(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	if err := h.uc.MakeBid(r.Context(), caller, domain.Address(req.Collection), req.TokenID, bid); err != nil {
		h.respondError(w, "PlaceBid", err)
		return
	}
	if h.metrics != nil {
		h.metrics.BidsPlacedTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) SettleAuction(w http.ResponseWriter, r *http.Request) {
	defer h.observe("SettleAuction")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.uc.GetAuctionItem(r.Context(), caller, domain.Address(req.Collection), req.TokenID); err != nil {
		h.respondError(w, "SettleAuction", err)
		return
	}
	if h.metrics != nil {
		h.metrics.AuctionsSettledTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) CancelAuction(w http.ResponseWriter, r *http.Request) {
	defer h.observe("CancelAuction")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.uc.CancelAuction(r.Context(), caller, domain.Address(req.Collection), req.TokenID); err != nil {
		h.respondError(w, "CancelAuction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) WithdrawItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("WithdrawItem")()
	caller, ok := ContextAddress(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "caller not authenticated")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.uc.GetMyItem(r.Context(), caller, domain.Address(req.Collection), req.TokenID); err != nil {
		h.respondError(w, "WithdrawItem", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MarketplaceHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GetItem")()
	collection := chi.URLParam(r, "collection")
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	info, err := h.uc.GeneralInfo(r.Context(), domain.Address(collection), id)
	if err != nil {
		h.respondError(w, "GetItem", err)
		return
	}
	writeJSON(w, http.StatusOK, generalInfoResponse{
		Owner:         string(info.Owner),
		IsInternal:    info.IsInternal,
		Listed:        info.Listed,
		TokenToBuy:    string(info.TokenToBuy),
		Price:         info.Price.Dec(),
		Amount:        info.Amount.Dec(),
		SellForNative: info.SellForNative,
	})
}

func (h *MarketplaceHandler) GetAuction(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GetAuction")()
	collection := chi.URLParam(r, "collection")
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	info, err := h.uc.AuctionInfo(r.Context(), domain.Address(collection), id)
	if err != nil {
		h.respondError(w, "GetAuction", err)
		return
	}
	endTime := ""
	if !info.EndTime.IsZero() {
		endTime = info.EndTime.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, auctionInfoResponse{
		LastBidder:     string(info.LastBidder),
		LastBid:        info.LastBid.Dec(),
		EndTime:        endTime,
		BidMinStandard: info.BidMinStandard.Dec(),
	})
}

func (h *MarketplaceHandler) respondError(w http.ResponseWriter, method string, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("method", method), zap.Error(err))
	}
	if h.metrics != nil {
		errType := "domain"
		if status == http.StatusInternalServerError {
			errType = "internal"
		}
		h.metrics.APIErrorsTotal.WithLabelValues(method, errType).Inc()
	}
	writeError(w, status, err.Error())
}

func (h *MarketplaceHandler) observe(method string) func() {
	start := time.Now()
	return func() {
		if h.metrics != nil {
			h.metrics.APILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
		}
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotAuctionWinner),
		errors.Is(err, token.ErrNotApproved),
		errors.Is(err, token.ErrNotOwnerOrApproved),
		errors.Is(err, token.ErrIncorrectOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrAuctionEnded),
		errors.Is(err, domain.ErrAuctionNotEnded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotListed),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrUnknownCollection),
		errors.Is(err, token.ErrInvalidTokenID),
		errors.Is(err, token.ErrUnknownToken):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientPayment),
		errors.Is(err, domain.ErrBidTooLow),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownPaymentToken),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseU256(s string) (*uint256.Int, error) {
	return uint256.FromDecimal(s)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
