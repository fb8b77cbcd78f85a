package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1

	// MaxSearchLength caps the free-text filter passed to LIKE queries
	MaxSearchLength = 100
)

// Params holds validated listing parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
	Search string
}

// Parse reads page, limit and search from the query string. Malformed or
// out-of-range values fall back to the defaults instead of failing the request.
func Parse(c *gin.Context) Params {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	switch {
	case err != nil || limit < MinLimit:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	search := strings.TrimSpace(c.Query("search"))
	if len(search) > MaxSearchLength {
		search = search[:MaxSearchLength]
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: search,
	}
}
