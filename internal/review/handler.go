package review

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Submit godoc
// @Summary      Review a closed booking
// @Description  One review per booking, only after it was paid. Rating 0 is a comment only review.
// @Tags         reviews
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      SubmitRequest  true  "Review"
// @Success      201      {object}  SubmitResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /reviews [post]
func (h *Handler) Submit(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), userID, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByProvider godoc
// @Summary      Reviews of a provider
// @Tags         reviews
// @Produce      json
// @Param        providerID  path      int  true   "Provider user ID"
// @Param        limit       query     int  false  "Page size"  default(20)
// @Param        offset      query     int  false  "Offset"     default(0)
// @Success      200         {array}   WithAuthor
// @Router       /providers/{providerID}/reviews [get]
func (h *Handler) ListByProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("providerID"))
	if err != nil || providerID <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid provider id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.service.ListByProvider(c.Request.Context(), providerID, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
