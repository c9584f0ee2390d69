package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/http/httputil"
)

const priceRequestTimeout = 20 * time.Second

type PriceProvider interface {
	GetPrices(ctx context.Context, mints []solana.PublicKey) (domain.PriceMap, error)
	LatestPrices() (domain.PriceMap, time.Time, error)
}

type PriceHandler struct {
	prices PriceProvider
}

func NewPriceHandler(prices PriceProvider) *PriceHandler {
	return &PriceHandler{prices: prices}
}

func (h *PriceHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getPrices)
	pub.GET("/latest", h.getLatestPrices)
}

func (h *PriceHandler) Root() string {
	return "/prices"
}

// PricesResponse maps mint addresses to prices in units of the first quote token
type PricesResponse struct {
	// Prices as plain decimal strings. Mints without a liquid route are absent.
	Prices map[string]string `json:"prices"`

	// Unix milliseconds of the calculation, 0 when nothing was ever priced
	UpdatedAt int64 `json:"updatedAt" example:"1700000000123"`
}

// getPrices godoc
// @Summary Live token prices
// @Description Fetches the pools pairing each mint with the quote tokens and propagates prices
// @Description outward from the first quote token. Prices are in units of that token.
// @Tags price
// @Produce json
// @Param mints query string true "Comma separated mints (base58)" example("So11111111111111111111111111111111111111112")
// @Success 200 {object} httputil.Response{data=PricesResponse}
// @Failure 400 {object} httputil.Response "Invalid mint address"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/v1/prices [get]
func (h *PriceHandler) getPrices(c *gin.Context) {
	mints, err := parsePublicKeyList("mints", c.Query("mints"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if len(mints) == 0 {
		httputil.HandleError(c, fmt.Errorf("%w: mints is required", common.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), priceRequestTimeout)
	defer cancel()

	prices, err := h.prices.GetPrices(ctx, mints)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.HandleSuccess(c, PricesResponse{
		Prices:    prices.Strings(),
		UpdatedAt: time.Now().UnixMilli(),
	})
}

// getLatestPrices godoc
// @Summary Latest price snapshot
// @Description Returns the last calculated prices without touching the chain.
// @Tags price
// @Produce json
// @Success 200 {object} httputil.Response{data=PricesResponse}
// @Router /api/v1/prices/latest [get]
func (h *PriceHandler) getLatestPrices(c *gin.Context) {
	prices, at, err := h.prices.LatestPrices()
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	var updatedAt int64
	if !at.IsZero() {
		updatedAt = at.UnixMilli()
	}
	httputil.HandleSuccess(c, PricesResponse{
		Prices:    prices.Strings(),
		UpdatedAt: updatedAt,
	})
}
