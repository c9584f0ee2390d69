package http

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/domain"
	"github.com/hxuan190/pool-graph/internal/http/httputil"
	"github.com/hxuan190/pool-graph/internal/services/router"
)

const maxBatchPairs = 100

// RouteFinder is the read side of the pool graph.
type RouteFinder interface {
	GetRoute(start, end solana.PublicKey, opts *domain.RouteFindOptions) []domain.RoutePath
	GetAllRoutes(pairs [][2]solana.PublicKey, opts *domain.RouteFindOptions) domain.RoutePathMap
}

type RouteHandler struct {
	finder RouteFinder
}

func NewRouteHandler(finder RouteFinder) *RouteHandler {
	return &RouteHandler{finder: finder}
}

func (h *RouteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getRoutes)
	pub.POST("/batch", h.getAllRoutes)
	pub.GET("/id", h.getRouteID)
	pub.GET("/id/:routeId", h.deconstructRouteID)
}

func (h *RouteHandler) Root() string {
	return "/routes"
}

// RoutesResponse lists every route of at most two hops between two mints
type RoutesResponse struct {
	// Canonical id of the unordered pair
	RouteID string `json:"routeId" example:"So11111111111111111111111111111111111111112-uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`

	// Direct routes first, then two hop routes
	Routes []domain.RoutePath `json:"routes"`
}

// BatchRoutesRequest asks for routes between many pairs at once
type BatchRoutesRequest struct {
	// Mint pairs, each [start, end]
	Pairs [][2]string `json:"pairs" binding:"required"`

	// Allowed intermediate mints. Omit to allow every mint, send [] for direct routes only.
	IntermediateTokens *[]string `json:"intermediateTokens,omitempty"`
}

// RouteIDResponse pairs a route id with its two mints
type RouteIDResponse struct {
	RouteID string `json:"routeId" example:"So11111111111111111111111111111111111111112-uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`
	TokenA  string `json:"tokenA" example:"So11111111111111111111111111111111111111112"`
	TokenB  string `json:"tokenB" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`
}

// getRoutes godoc
// @Summary Find routes between two mints
// @Description Lists direct pools and two hop paths between from and to.
// @Description Routes never revisit a mint and never reuse a pool.
// @Tags routes
// @Produce json
// @Param from query string true "Start mint (base58)" example("So11111111111111111111111111111111111111112")
// @Param to query string true "End mint (base58)" example("uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG")
// @Param intermediates query string false "Comma separated intermediate mints; present but empty means direct routes only"
// @Success 200 {object} httputil.Response{data=RoutesResponse}
// @Failure 400 {object} httputil.Response "Invalid mint address"
// @Router /api/v1/routes [get]
func (h *RouteHandler) getRoutes(c *gin.Context) {
	from, err := parsePublicKey("from", c.Query("from"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	to, err := parsePublicKey("to", c.Query("to"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	var opts *domain.RouteFindOptions
	if raw, ok := c.GetQuery("intermediates"); ok {
		tokens, err := parsePublicKeyList("intermediates", raw)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		opts = &domain.RouteFindOptions{IntermediateTokens: tokens}
	}

	routes := h.finder.GetRoute(from, to, opts)
	if routes == nil {
		routes = []domain.RoutePath{}
	}
	httputil.HandleSuccess(c, RoutesResponse{
		RouteID: router.GetRouteID(from, to),
		Routes:  routes,
	})
}

// getAllRoutes godoc
// @Summary Find routes for many pairs
// @Description Pairs sharing a route id keep only the routes of the last such pair.
// @Tags routes
// @Accept json
// @Produce json
// @Param request body BatchRoutesRequest true "Pairs and optional intermediates"
// @Success 200 {object} httputil.Response{data=domain.RoutePathMap}
// @Failure 400 {object} httputil.Response "Invalid request body"
// @Router /api/v1/routes/batch [post]
func (h *RouteHandler) getAllRoutes(c *gin.Context) {
	var req BatchRoutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, err.Error())
		return
	}
	if len(req.Pairs) > maxBatchPairs {
		httputil.HandleError(c, fmt.Errorf("%w: at most %d pairs per request", common.ErrInvalidInput, maxBatchPairs))
		return
	}

	pairs := make([][2]solana.PublicKey, 0, len(req.Pairs))
	for _, pair := range req.Pairs {
		start, err := parsePublicKey("pairs", pair[0])
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		end, err := parsePublicKey("pairs", pair[1])
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		pairs = append(pairs, [2]solana.PublicKey{start, end})
	}

	var opts *domain.RouteFindOptions
	if req.IntermediateTokens != nil {
		tokens, err := parsePublicKeys("intermediateTokens", *req.IntermediateTokens)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		opts = &domain.RouteFindOptions{IntermediateTokens: tokens}
	}

	httputil.HandleSuccess(c, h.finder.GetAllRoutes(pairs, opts))
}

// getRouteID godoc
// @Summary Route id of a mint pair
// @Tags routes
// @Produce json
// @Param tokenA query string true "First mint (base58)"
// @Param tokenB query string true "Second mint (base58)"
// @Success 200 {object} httputil.Response{data=RouteIDResponse}
// @Failure 400 {object} httputil.Response "Invalid mint address"
// @Router /api/v1/routes/id [get]
func (h *RouteHandler) getRouteID(c *gin.Context) {
	tokenA, err := parsePublicKey("tokenA", c.Query("tokenA"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	tokenB, err := parsePublicKey("tokenB", c.Query("tokenB"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	routeID := router.GetRouteID(tokenA, tokenB)
	a, b, _ := router.DeconstructRouteID(routeID)
	httputil.HandleSuccess(c, RouteIDResponse{
		RouteID: routeID,
		TokenA:  a.String(),
		TokenB:  b.String(),
	})
}

// deconstructRouteID godoc
// @Summary Split a route id into its mints
// @Tags routes
// @Produce json
// @Param routeId path string true "Route id"
// @Success 200 {object} httputil.Response{data=RouteIDResponse}
// @Failure 400 {object} httputil.Response "Malformed route id"
// @Router /api/v1/routes/id/{routeId} [get]
func (h *RouteHandler) deconstructRouteID(c *gin.Context) {
	routeID := c.Param("routeId")
	tokenA, tokenB, err := router.DeconstructRouteID(routeID)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	httputil.HandleSuccess(c, RouteIDResponse{
		RouteID: routeID,
		TokenA:  tokenA.String(),
		TokenB:  tokenB.String(),
	})
}
