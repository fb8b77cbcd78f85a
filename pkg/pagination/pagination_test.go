package pagination

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parse(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/items?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"page=x&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"search=%20mug%20", Params{Page: 1, Limit: 20, Offset: 0, Search: "mug"}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, parse(tc.query))
		})
	}
}

func TestParse_TruncatesSearch(t *testing.T) {
	p := parse("search=" + strings.Repeat("a", 300))
	assert.Len(t, p.Search, MaxSearchLength)
}
