package wallet

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
)

type Handler struct {
	repo   Repository
	ledger *Ledger
}

func NewHandler(repo Repository, ledger *Ledger) *Handler {
	return &Handler{repo: repo, ledger: ledger}
}

// GetWallet godoc
// @Summary      Wallet balance
// @Tags         wallet
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200  {object}  Wallet
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	w, err := h.repo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// ListTransactions godoc
// @Summary      Wallet transaction history
// @Tags         wallet
// @Security     ApiKeyAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"  default(50)
// @Param        offset  query     int  false  "Offset"     default(0)
// @Success      200     {array}   Transaction
// @Failure      401     {object}  api.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.repo.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, txs)
}

// Reconcile godoc
// @Summary      Compare a wallet balance with its transaction log
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        userID  path      int  true  "User ID"
// @Success      200     {object}  Reconciliation
// @Failure      404     {object}  api.ErrorResponse
// @Router       /admin/wallets/{userID}/reconcile [get]
func (h *Handler) Reconcile(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return
	}

	rec, err := h.ledger.Reconcile(c.Request.Context(), userID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}
