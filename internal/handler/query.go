package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 200
)

// listQuery is the pagination/search/sort subset shared by every listing
// endpoint. Entity-specific filters are read by each handler on top.
type listQuery struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Out-of-range values fall back to defaults rather than erroring; listing
// endpoints stay lenient so admin UI links never 400 on a stale query
// string.
func bindListQuery(c *gin.Context) listQuery {
	q := listQuery{
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      defaultPage,
		PageSize:  defaultPageSize,
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit <= maxPageSize {
		q.PageSize = limit
	}

	return q
}
