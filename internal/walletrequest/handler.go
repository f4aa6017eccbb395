package walletrequest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
)

// multipartOverhead is allowed on top of the image size for form fields and boundaries.
const multipartOverhead = 1 << 20

type Handler struct {
	service   Service
	maxUpload int64
}

func NewHandler(service Service, maxUpload int64) *Handler {
	return &Handler{service: service, maxUpload: maxUpload}
}

func requestID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("requestID"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request id"})
		return 0, false
	}
	return id, true
}

func paging(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// SubmitDeposit godoc
// @Summary      Request a wallet top up
// @Description  Multipart form with amount, transaction_reference and a screenshot image of the payment.
// @Tags         wallet
// @Security     ApiKeyAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        amount                 formData  string  true  "Amount"
// @Param        transaction_reference  formData  string  true  "External payment reference"
// @Param        screenshot             formData  file    true  "Payment proof"
// @Success      201  {object}  Request
// @Failure      400  {object}  api.ErrorResponse
// @Router       /customer/wallet/deposit-request [post]
func (h *Handler) SubmitDeposit(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit := h.maxUpload + multipartOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	if err := c.Request.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "screenshot is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid multipart form"})
		return
	}

	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be a number"})
		return
	}

	fh, err := c.FormFile("screenshot")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "screenshot is required"})
		return
	}
	if fh.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "screenshot is too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "screenshot could not be read"})
		return
	}
	defer f.Close()

	in := DepositInput{Amount: amount, Reference: c.PostForm("transaction_reference")}
	req, err := h.service.SubmitDeposit(c.Request.Context(), userID, in, f, fh.Filename)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// SubmitWithdrawal godoc
// @Summary      Request a payout
// @Tags         wallet
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      WithdrawalRequest  true  "Withdrawal"
// @Success      201      {object}  Request
// @Failure      400      {object}  api.ErrorResponse
// @Router       /provider/wallet/withdraw-request [post]
func (h *Handler) SubmitWithdrawal(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var in WithdrawalRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	req, err := h.service.SubmitWithdrawal(c.Request.Context(), userID, in)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListMine godoc
// @Summary      Own wallet requests
// @Tags         wallet
// @Security     ApiKeyAuth
// @Produce      json
// @Success      200  {array}  Request
// @Router       /wallet/requests [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, offset := paging(c)
	list, err := h.service.ListMine(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListForAdmin godoc
// @Summary      Wallet request queue
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        status  query     string  false  "pending, approved or rejected"  default(pending)
// @Success      200     {array}   AdminView
// @Router       /admin/wallet-requests [get]
func (h *Handler) ListForAdmin(c *gin.Context) {
	limit, offset := paging(c)
	list, err := h.service.ListByStatus(c.Request.Context(), Status(c.Query("status")), limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Approve godoc
// @Summary      Approve a wallet request
// @Description  Credits deposits and debits withdrawals. Fails with 409 when the request is no longer pending.
// @Tags         admin
// @Security     ApiKeyAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  Request
// @Failure      400        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/wallet-requests/{requestID}/approve [put]
func (h *Handler) Approve(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	req, err := h.service.Approve(c.Request.Context(), adminID, id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Reject godoc
// @Summary      Reject a wallet request
// @Tags         admin
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        requestID  path      int            true   "Request ID"
// @Param        request    body      RejectRequest  false  "Reason"
// @Success      200        {object}  Request
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/wallet-requests/{requestID}/reject [put]
func (h *Handler) Reject(c *gin.Context) {
	adminID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}

	var body RejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
			return
		}
		if err := api.ValidateStruct(body); err != nil {
			api.Fail(c, err)
			return
		}
	}

	req, err := h.service.Reject(c.Request.Context(), adminID, id, body.Reason)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
