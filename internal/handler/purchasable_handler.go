package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/pkg/pagination"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchasableHandler struct {
	purchasableService service.PurchasableService
}

func NewPurchasableHandler(purchasableService service.PurchasableService) *PurchasableHandler {
	return &PurchasableHandler{purchasableService: purchasableService}
}

func (h *PurchasableHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/purchasables")
	{
		group.GET("", h.ListPurchasables)
		group.GET("/:id", h.GetPurchasable)

		staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager)
		group.POST("", staff, h.CreatePurchasable)
		group.PUT("/:id", staff, h.UpdatePurchasable)
		group.DELETE("/:id", staff, h.DeletePurchasable)
	}
}

// ListPurchasables returns one page of the catalog
// @Summary      List purchasables
// @Tags         purchasables
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Matches sku or description"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/purchasables [get]
func (h *PurchasableHandler) ListPurchasables(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.purchasableService.ListPurchasables(c.Request.Context(), p.Page, p.Limit, p.Search)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessPage(http.StatusOK, items, total, p.Page, p.Limit))
}

func (h *PurchasableHandler) GetPurchasable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.purchasableService.GetPurchasable(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h *PurchasableHandler) CreatePurchasable(c *gin.Context) {
	var req service.PurchasableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.purchasableService.CreatePurchasable(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

func (h *PurchasableHandler) UpdatePurchasable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.PurchasableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.purchasableService.UpdatePurchasable(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

func (h *PurchasableHandler) DeletePurchasable(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.purchasableService.DeletePurchasable(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Purchasable deleted successfully"))
}
