package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/service"
	"storefront/internal/shipping"
	"storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// writeError maps service errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrGenerationInProgress):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, shipping.ErrNoShippingMethods):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// idParam parses a numeric path parameter, answering 400 when it is malformed
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid "+name))
		return 0, false
	}
	return uint(id), true
}
