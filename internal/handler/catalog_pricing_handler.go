package handler

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogPricingHandler struct {
	ruleService    service.CatalogPricingRuleService
	pricingService service.CatalogPricingService
	atomic         bool
}

// NewCatalogPricingHandler wires the rule and generation endpoints. atomic is
// the default for generation requests that do not say otherwise.
func NewCatalogPricingHandler(ruleService service.CatalogPricingRuleService, pricingService service.CatalogPricingService, atomic bool) *CatalogPricingHandler {
	return &CatalogPricingHandler{ruleService: ruleService, pricingService: pricingService, atomic: atomic}
}

func (h *CatalogPricingHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	rules := router.Group("/api/catalog-pricing-rules")
	rules.Use(staff)
	{
		rules.GET("", h.ListRules)
		rules.POST("", h.CreateRule)
		rules.GET("/:id", h.GetRule)
		rules.PUT("/:id", h.UpdateRule)
		rules.DELETE("/:id", h.DeleteRule)
	}

	router.POST("/api/catalog-pricing/generate", staff, h.Generate)
	router.GET("/api/catalog-pricing/:purchasableId", h.GetCatalogPrice)
}

func (h *CatalogPricingHandler) ListRules(c *gin.Context) {
	rules, err := h.ruleService.ListRules(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rules))
}

func (h *CatalogPricingHandler) GetRule(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rule, err := h.ruleService.GetRule(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// CreateRule creates a catalog pricing rule
// @Summary      Create catalog pricing rule
// @Description  Percent amounts are fractions: 0.1 means 10%.
// @Tags         catalog-pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CatalogPricingRuleRequest  true  "Rule"
// @Success      201      {object}  response.Response{data=model.CatalogPricingRule}
// @Failure      400      {object}  response.Response
// @Router       /api/catalog-pricing-rules [post]
func (h *CatalogPricingHandler) CreateRule(c *gin.Context) {
	var req service.CatalogPricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.ruleService.CreateRule(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

func (h *CatalogPricingHandler) UpdateRule(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.CatalogPricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rule, err := h.ruleService.UpdateRule(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

func (h *CatalogPricingHandler) DeleteRule(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.ruleService.DeleteRule(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Catalog pricing rule deleted successfully"))
}

// Generate rebuilds the catalog_pricing table synchronously
// @Summary      Regenerate catalog pricing
// @Description  Rebuilds every catalog price row. Progress is pushed to /ws subscribers.
// @Tags         catalog-pricing
// @Produce      json
// @Security     BearerAuth
// @Param        atomic  query     bool  false  "Run truncate and inserts in one transaction"
// @Success      200     {object}  response.Response{data=service.GenerateResult}
// @Failure      409     {object}  response.Response
// @Router       /api/catalog-pricing/generate [post]
func (h *CatalogPricingHandler) Generate(c *gin.Context) {
	atomic := h.atomic
	if v := c.Query("atomic"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid atomic flag"))
			return
		}
		atomic = parsed
	}

	result, err := h.pricingService.Generate(c.Request.Context(), service.GenerateOptions{
		Atomic:  atomic,
		ActorID: middleware.CurrentUserID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetCatalogPrice returns the lowest current price of a purchasable
// @Summary      Get catalog price
// @Tags         catalog-pricing
// @Produce      json
// @Param        purchasableId  path      int  true   "Purchasable ID"
// @Param        userId         query     int  false  "Price as seen by this user"
// @Success      200            {object}  response.Response{data=service.CatalogPriceResponse}
// @Failure      404            {object}  response.Response
// @Router       /api/catalog-pricing/{purchasableId} [get]
func (h *CatalogPricingHandler) GetCatalogPrice(c *gin.Context) {
	purchasableID, ok := idParam(c, "purchasableId")
	if !ok {
		return
	}

	var userID *uint
	if v := c.Query("userId"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid userId"))
			return
		}
		id := uint(parsed)
		userID = &id
	}

	price, err := h.pricingService.GetCatalogPrice(c.Request.Context(), purchasableID, userID, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, price))
}
