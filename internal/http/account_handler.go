package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/pool-graph/internal/common"
	"github.com/hxuan190/pool-graph/internal/http/httputil"
	"github.com/hxuan190/pool-graph/internal/services/builder"
)

const accountRequestTimeout = 10 * time.Second

type AccountHandler struct {
	lister builder.AccountLister
}

func NewAccountHandler(lister builder.AccountLister) *AccountHandler {
	return &AccountHandler{lister: lister}
}

func (h *AccountHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/ata", h.resolveATAs)
}

func (h *AccountHandler) Root() string {
	return "/accounts"
}

// ATAInfo describes the owner's associated token account for one mint
type ATAInfo struct {
	Mint         string `json:"mint" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG"`
	Address      string `json:"address" example:"7Xk9qDPXEaLbbYTn4pF3Fhqz4XNrmZ9rFrrqyj3wAbCd"`
	TokenProgram string `json:"tokenProgram" example:"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"`

	// False when the account must be created before use
	Exists bool `json:"exists" example:"true"`
}

// resolveATAs godoc
// @Summary Resolve associated token accounts
// @Description Derives the owner's ATA for each mint under the mint's token program and reports which exist.
// @Tags accounts
// @Produce json
// @Param owner query string true "Wallet address (base58)"
// @Param mints query string true "Comma separated mints (base58)"
// @Success 200 {object} httputil.Response{data=[]ATAInfo}
// @Failure 400 {object} httputil.Response "Invalid address or unknown mint"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/v1/accounts/ata [get]
func (h *AccountHandler) resolveATAs(c *gin.Context) {
	owner, err := parsePublicKey("owner", c.Query("owner"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mints, err := parsePublicKeyList("mints", c.Query("mints"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if len(mints) == 0 {
		httputil.HandleError(c, fmt.Errorf("%w: mints is required", common.ErrInvalidInput))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), accountRequestTimeout)
	defer cancel()

	resolved, err := builder.ResolveOrCreateATAs(ctx, h.lister, owner, owner, mints)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	infos := make([]ATAInfo, 0, len(resolved))
	for _, ata := range resolved {
		infos = append(infos, ATAInfo{
			Mint:         ata.Mint.String(),
			Address:      ata.Address.String(),
			TokenProgram: ata.TokenProgram.String(),
			Exists:       ata.Exists,
		})
	}
	httputil.HandleSuccess(c, infos)
}
