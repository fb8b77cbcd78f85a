package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/database"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/shipping"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func bearer(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": role}).SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)
	return "Bearer " + s
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	zones, err := shipping.NewZoneMatcher()
	require.NoError(t, err)
	engine := shipping.NewEngine(zones)

	tx := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	purchasableRepo := repository.NewPurchasableRepository(db)
	groupRepo := repository.NewUserGroupRepository(db)
	ruleRepo := repository.NewCatalogPricingRuleRepository(db)
	categoryRepo := repository.NewShippingCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	cache := service.NewRuleCache(ruleRepo)
	pricing := service.NewCatalogPricingService(
		repository.NewCatalogPricingRepository(db), purchasableRepo, groupRepo, auditRepo, tx,
		cache, nil, nil, 0,
	)
	shippingSvc := service.NewShippingService(
		repository.NewShippingMethodRepository(db), repository.NewShippingRuleRepository(db),
		categoryRepo, repository.NewShippingZoneRepository(db), purchasableRepo, orderRepo,
		auditRepo, tx, pricing, engine, zones,
	)

	r := gin.New()
	api := r.Group("")
	NewCatalogPricingHandler(service.NewCatalogPricingRuleService(ruleRepo, groupRepo, auditRepo, tx, cache, nil), pricing, false).RegisterRoutes(api)
	NewShippingHandler(shippingSvc).RegisterRoutes(api)
	NewPurchasableHandler(service.NewPurchasableService(purchasableRepo, categoryRepo, auditRepo, tx)).RegisterRoutes(api)
	NewAuditHandler(service.NewAuditService(auditRepo)).RegisterRoutes(api)
	NewOrderHandler(service.NewOrderService(orderRepo, purchasableRepo, pricing, tx)).RegisterRoutes(api)
	return r, db
}

func do(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerate_RequiresStaff(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/catalog-pricing/generate", "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/api/catalog-pricing/generate", bearer(t, model.RoleCustomer), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/catalog-pricing/generate?atomic=maybe", bearer(t, model.RoleAdmin), "").Code)
}

func TestCatalogPricingFlow(t *testing.T) {
	r, db := setupRouter(t)
	admin := bearer(t, model.RoleAdmin)

	require.NoError(t, db.Create(&model.Purchasable{SKU: "TEE", Description: "Tee", BasePrice: decimal.NewFromInt(20), IsShippable: true}).Error)

	w := do(r, http.MethodPost, "/api/catalog-pricing-rules", admin,
		`{"name":"half off","all_purchasables":true,"all_groups":true,"apply":"toPercent","apply_amount":"0.5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/catalog-pricing-rules", admin,
		`{"name":"broken","all_groups":true,"apply":"toFlat","apply_amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/catalog-pricing/generate?atomic=true", admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w).Data.(map[string]interface{})
	assert.EqualValues(t, 2, result["rows"])
	assert.Equal(t, true, result["atomic"])

	w = do(r, http.MethodGet, "/api/catalog-pricing/1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	price := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "10", price["price"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/catalog-pricing/99", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/catalog-pricing/abc", "", "").Code)

	w = do(r, http.MethodGet, "/api/audit-logs?action="+model.ActionGenerateCatalogPricing, admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w).Data.(map[string]interface{})
	assert.EqualValues(t, 1, page["total"])
}

func TestShippingQuotes_NoMethodsConfigured(t *testing.T) {
	r, db := setupRouter(t)
	require.NoError(t, db.Create(&model.Purchasable{SKU: "TEE", Description: "Tee", BasePrice: decimal.NewFromInt(20), IsShippable: true}).Error)

	w := do(r, http.MethodPost, "/api/shipping/quotes", "", `{"items":[{"purchasable_id":1,"qty":1}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodPost, "/api/shipping/quotes", "", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShippingRules_ConflictingPriority(t *testing.T) {
	r, _ := setupRouter(t)
	staff := bearer(t, model.RoleManager)

	w := do(r, http.MethodPost, "/api/shipping-methods", staff, `{"name":"Courier","handle":"courier"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/shipping-methods/1/rules", staff, `{"name":"flat","priority":1,"base_rate":"5"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/shipping-methods/1/rules", staff, `{"name":"other","priority":1}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/shipping/quotes", "", `{"items":[{"purchasable_id":7,"qty":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrders_CreateAndQuote(t *testing.T) {
	r, db := setupRouter(t)
	customer := bearer(t, model.RoleCustomer)
	staff := bearer(t, model.RoleAdmin)
	require.NoError(t, db.Create(&model.Purchasable{SKU: "TEE", Description: "Tee", BasePrice: decimal.NewFromInt(20), Weight: decimal.NewFromInt(1), IsShippable: true}).Error)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/shipping-methods", staff, `{"name":"Courier","handle":"courier"}`).Code)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/shipping-methods/1/rules", staff, `{"name":"per item","per_item_rate":"2"}`).Code)

	w := do(r, http.MethodPost, "/api/orders", customer, `{"shipping_country_code":"US","items":[{"purchasable_id":1,"qty":3}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/orders/1/shipping-quotes", customer, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quotes := decode(t, w).Data.([]interface{})
	require.Len(t, quotes, 1)
	assert.Equal(t, "6", quotes[0].(map[string]interface{})["amount"])

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/orders/42", customer, "").Code)
}
