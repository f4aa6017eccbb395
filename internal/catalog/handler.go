package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
)

type Handler struct {
	service CatalogService
}

func NewHandler(service CatalogService) *Handler {
	return &Handler{service: service}
}

// ListServices godoc
// @Summary      List service categories
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   Service
// @Router       /services [get]
func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, services)
}

// CreateService godoc
// @Summary      Create service category
// @Tags         admin
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateServiceRequest  true  "Service"
// @Success      201      {object}  Service
// @Failure      400      {object}  api.ValidationErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	var req CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	svc, err := h.service.CreateService(c.Request.Context(), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, svc)
}

func optionalFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// SearchProviders godoc
// @Summary      Search providers
// @Description  Filters by service and, when lat/lng are given, sorts by distance with an optional radius.
// @Tags         catalog
// @Produce      json
// @Param        service_id  query     int     false  "Service ID"
// @Param        lat         query     number  false  "Latitude"
// @Param        lng         query     number  false  "Longitude"
// @Param        radius_km   query     number  false  "Radius in km"
// @Success      200         {array}   Provider
// @Failure      400         {object}  api.ErrorResponse
// @Router       /providers [get]
func (h *Handler) SearchProviders(c *gin.Context) {
	var q ProviderSearch
	var ok bool

	q.ServiceID, _ = strconv.Atoi(c.Query("service_id"))
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	q.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	if q.Lat, ok = optionalFloat(c, "lat"); !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid lat"})
		return
	}
	if q.Lng, ok = optionalFloat(c, "lng"); !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid lng"})
		return
	}
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid radius_km"})
			return
		}
		q.RadiusKm = r
	}

	providers, err := h.service.SearchProviders(c.Request.Context(), q)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, providers)
}

// GetProvider godoc
// @Summary      Provider profile
// @Tags         catalog
// @Produce      json
// @Param        providerID  path      int  true  "Provider user ID"
// @Success      200         {object}  Provider
// @Failure      404         {object}  api.ErrorResponse
// @Router       /providers/{providerID} [get]
func (h *Handler) GetProvider(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("providerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid provider id"})
		return
	}

	p, err := h.service.GetProvider(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile godoc
// @Summary      Update own provider profile
// @Tags         provider
// @Security     ApiKeyAuth
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateProfileRequest  true  "Profile"
// @Success      200      {object}  Provider
// @Failure      400      {object}  api.ValidationErrorResponse
// @Router       /provider/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request body"})
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
