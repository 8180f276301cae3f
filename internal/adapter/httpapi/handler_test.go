package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NiceArti/Marketplace/internal/adapter/repository/memory"
	"github.com/NiceArti/Marketplace/internal/adapter/token"
	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/marketplace/usecase"
)

const testSecret = "test-secret"

const market = domain.Address("0x00000000000000000000000000000000000f00d5")

type apiFixture struct {
	server  *httptest.Server
	pay     *token.Token20
	payAddr domain.Address
	nftAddr domain.Address
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dir := token.NewDirectory()
	nftAddr, _ := dir.DeployNFT("Market Items", "MKT")
	multiAddr, _ := dir.DeployMultiToken()
	payAddr, pay := dir.DeployPayment("Gold", "GLD")

	uc := usecase.NewMarketplaceUseCase(
		memory.NewItemRepository(), dir, token.NewBank(), nil, nil, nil,
		usecase.MarketplaceConfig{
			MarketAddress: market,
			Internal721:   nftAddr,
			Internal1155:  multiAddr,
		}, zap.NewNop())

	logger := zap.NewNop()
	h := NewMarketplaceHandler(uc, nil, logger)
	mux := chi.NewRouter()
	SetupMarketplaceRoutes(mux, h, testSecret, logger)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &apiFixture{server: server, pay: pay, payAddr: payAddr, nftAddr: nftAddr}
}

func signToken(t *testing.T, address string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"address": address,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path, tokenString string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/items/721", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodPost, "/api/items/721", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Reads stay public.
	resp = f.do(t, http.MethodGet, "/api/items/"+string(f.nftAddr)+"/1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMintListBuyOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	aliceToken := signToken(t, "0xa11c")
	bobToken := signToken(t, "0xb0b0")

	resp := f.do(t, http.MethodPost, "/api/items/721", aliceToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var key struct {
		Collection string `json:"collection"`
		TokenID    uint64 `json:"token_id"`
	}
	decodeBody(t, resp, &key)
	assert.Equal(t, string(f.nftAddr), key.Collection)

	resp = f.do(t, http.MethodPost, "/api/listings", aliceToken, map[string]interface{}{
		"collection":    key.Collection,
		"token_id":      key.TokenID,
		"payment_token": string(f.payAddr),
		"price":         "100",
		"amount":        "1",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/items/"+key.Collection+"/1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info struct {
		Owner  string `json:"owner"`
		Listed bool   `json:"listed"`
		Price  string `json:"price"`
	}
	decodeBody(t, resp, &info)
	assert.Equal(t, "0xa11c", info.Owner)
	assert.True(t, info.Listed)
	assert.Equal(t, "100", info.Price)

	// An unfunded buyer maps the allowance failure to a 400.
	resp = f.do(t, http.MethodPost, "/api/purchases", bobToken, map[string]interface{}{
		"collection": key.Collection,
		"token_id":   key.TokenID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, f.pay.Mint(ctx, "0xb0b0", uint256.NewInt(100)))
	require.NoError(t, f.pay.Approve(ctx, "0xb0b0", market, uint256.NewInt(100)))

	resp = f.do(t, http.MethodPost, "/api/purchases", bobToken, map[string]interface{}{
		"collection": key.Collection,
		"token_id":   key.TokenID,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = f.do(t, http.MethodGet, "/api/items/"+key.Collection+"/1", "", nil)
	decodeBody(t, resp, &info)
	assert.Equal(t, "0xb0b0", info.Owner)
	assert.False(t, info.Listed)
}

func TestErrorStatusMapping(t *testing.T) {
	f := newAPIFixture(t)

	aliceToken := signToken(t, "0xa11c")
	bobToken := signToken(t, "0xb0b0")

	resp := f.do(t, http.MethodPost, "/api/items/721", aliceToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var key struct {
		Collection string `json:"collection"`
		TokenID    uint64 `json:"token_id"`
	}
	decodeBody(t, resp, &key)

	t.Run("not owner is 403", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/listings", bobToken, map[string]interface{}{
			"collection":    key.Collection,
			"token_id":      key.TokenID,
			"payment_token": string(f.payAddr),
			"price":         "100",
			"amount":        "1",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "marketplace: not owner", body["error"])
	})

	t.Run("double listing is 409", func(t *testing.T) {
		list := map[string]interface{}{
			"collection":    key.Collection,
			"token_id":      key.TokenID,
			"payment_token": string(f.payAddr),
			"price":         "100",
			"amount":        "1",
		}
		resp := f.do(t, http.MethodPost, "/api/listings", aliceToken, list)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()

		resp = f.do(t, http.MethodPost, "/api/listings", aliceToken, list)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("buying an unlisted item is 404", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/purchases", bobToken, map[string]interface{}{
			"collection": key.Collection,
			"token_id":   uint64(999),
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown collection is 404", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/listings", aliceToken, map[string]interface{}{
			"collection":    "0xdead",
			"token_id":      uint64(1),
			"payment_token": string(f.payAddr),
			"price":         "100",
			"amount":        "1",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("malformed amount is 400", func(t *testing.T) {
		resp := f.do(t, http.MethodPost, "/api/items/1155", aliceToken, map[string]interface{}{
			"amount": "not-a-number",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}
