package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShippingHandler struct {
	shippingService service.ShippingService
}

func NewShippingHandler(shippingService service.ShippingService) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService}
}

func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	methods := router.Group("/api/shipping-methods")
	methods.Use(staff)
	{
		methods.GET("", h.ListMethods)
		methods.POST("", h.CreateMethod)
		methods.GET("/:id", h.GetMethod)
		methods.PUT("/:id", h.UpdateMethod)
		methods.DELETE("/:id", h.DeleteMethod)

		methods.GET("/:id/rules", h.ListRules)
		methods.POST("/:id/rules", h.CreateRule)
		methods.PUT("/:id/rules/order", h.ReorderRules)
		methods.PUT("/:id/rules/:ruleId", h.UpdateRule)
		methods.DELETE("/:id/rules/:ruleId", h.DeleteRule)
	}

	categories := router.Group("/api/shipping-categories")
	categories.Use(staff)
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}

	zones := router.Group("/api/shipping-zones")
	zones.Use(staff)
	{
		zones.GET("", h.ListZones)
		zones.POST("", h.CreateZone)
		zones.DELETE("/:id", h.DeleteZone)
	}

	router.POST("/api/shipping/quotes", h.GetShippingQuotes)
	router.GET("/api/orders/:id/shipping-quotes",
		middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleCustomer),
		h.GetOrderShippingQuotes)
}

// --- Methods ---

// ListMethods returns every shipping method without its rules
// @Summary      List shipping methods
// @Tags         shipping
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.ShippingMethod}
// @Router       /api/shipping-methods [get]
func (h *ShippingHandler) ListMethods(c *gin.Context) {
	methods, err := h.shippingService.ListMethods(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, methods))
}

// GetMethod returns a shipping method with its rules in priority order
// @Summary      Get shipping method
// @Tags         shipping
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Shipping method ID"
// @Success      200  {object}  response.Response{data=model.ShippingMethod}
// @Failure      404  {object}  response.Response
// @Router       /api/shipping-methods/{id} [get]
func (h *ShippingHandler) GetMethod(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	method, err := h.shippingService.GetMethod(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, method))
}

// CreateMethod creates a shipping method
// @Summary      Create shipping method
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ShippingMethodRequest  true  "Shipping method"
// @Success      201      {object}  response.Response{data=model.ShippingMethod}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-methods [post]
func (h *ShippingHandler) CreateMethod(c *gin.Context) {
	var req service.ShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	method, err := h.shippingService.CreateMethod(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, method))
}

func (h *ShippingHandler) UpdateMethod(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	method, err := h.shippingService.UpdateMethod(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, method))
}

func (h *ShippingHandler) DeleteMethod(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.shippingService.DeleteMethod(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping method deleted successfully"))
}

// --- Rules ---

func (h *ShippingHandler) ListRules(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rules, err := h.shippingService.ListRules(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rules))
}

// CreateRule adds a rule to a shipping method. Without an explicit priority
// the rule is appended after the existing ones.
// @Summary      Create shipping rule
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                          true  "Shipping method ID"
// @Param        payload  body      service.ShippingRuleRequest  true  "Shipping rule"
// @Success      201      {object}  response.Response{data=model.ShippingRule}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/shipping-methods/{id}/rules [post]
func (h *ShippingHandler) CreateRule(c *gin.Context) {
	methodID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ShippingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.shippingService.CreateRule(c.Request.Context(), middleware.CurrentUserID(c), methodID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

func (h *ShippingHandler) UpdateRule(c *gin.Context) {
	methodID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ruleID, ok := idParam(c, "ruleId")
	if !ok {
		return
	}
	var req service.ShippingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.shippingService.UpdateRule(c.Request.Context(), middleware.CurrentUserID(c), methodID, ruleID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

func (h *ShippingHandler) DeleteRule(c *gin.Context) {
	methodID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ruleID, ok := idParam(c, "ruleId")
	if !ok {
		return
	}
	if err := h.shippingService.DeleteRule(c.Request.Context(), middleware.CurrentUserID(c), methodID, ruleID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping rule deleted successfully"))
}

// ReorderRules rewrites rule priorities from an ordered id list
// @Summary      Reorder shipping rules
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                          true  "Shipping method ID"
// @Param        payload  body      service.ReorderRulesRequest  true  "Rule ids, highest priority first"
// @Success      200      {object}  response.Response{data=[]model.ShippingRule}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-methods/{id}/rules/order [put]
func (h *ShippingHandler) ReorderRules(c *gin.Context) {
	methodID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ReorderRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rules, err := h.shippingService.ReorderRules(c.Request.Context(), middleware.CurrentUserID(c), methodID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rules))
}

// --- Categories & zones ---

func (h *ShippingHandler) ListCategories(c *gin.Context) {
	categories, err := h.shippingService.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

func (h *ShippingHandler) CreateCategory(c *gin.Context) {
	var req service.ShippingCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.shippingService.CreateCategory(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

func (h *ShippingHandler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.shippingService.DeleteCategory(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping category deleted successfully"))
}

func (h *ShippingHandler) ListZones(c *gin.Context) {
	zones, err := h.shippingService.ListZones(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, zones))
}

// CreateZone creates a shipping zone; the zip code formula is checked here
// @Summary      Create shipping zone
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ShippingZoneRequest  true  "Shipping zone"
// @Success      201      {object}  response.Response{data=model.ShippingZone}
// @Failure      400      {object}  response.Response
// @Router       /api/shipping-zones [post]
func (h *ShippingHandler) CreateZone(c *gin.Context) {
	var req service.ShippingZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	zone, err := h.shippingService.CreateZone(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, zone))
}

func (h *ShippingHandler) DeleteZone(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.shippingService.DeleteZone(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Shipping zone deleted successfully"))
}

// --- Quotes ---

// GetShippingQuotes prices a cart against every available shipping method
// @Summary      Quote shipping for a cart
// @Description  Returns the matching shipping options, cheapest first. An empty list means nothing can ship the cart.
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CartRequest  true  "Cart"
// @Success      200      {object}  response.Response{data=[]shipping.Quote}
// @Failure      400      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/shipping/quotes [post]
func (h *ShippingHandler) GetShippingQuotes(c *gin.Context) {
	var req service.CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	quotes, err := h.shippingService.GetShippingQuotes(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotes))
}

// GetOrderShippingQuotes prices a stored order
// @Summary      Quote shipping for an order
// @Tags         shipping
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]shipping.Quote}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/shipping-quotes [get]
func (h *ShippingHandler) GetOrderShippingQuotes(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	quotes, err := h.shippingService.GetOrderShippingQuotes(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotes))
}
