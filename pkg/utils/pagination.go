package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams is the page/limit window for list endpoints.
type PaginationParams struct {
	Page     int
	PageSize int
}

// GetPaginationParams reads page and limit query parameters, falling
// back to defaultSize. limit is capped at 500.
func GetPaginationParams(c echo.Context, defaultSize int) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > 500 {
		pageSize = 500
	}

	return PaginationParams{Page: page, PageSize: pageSize}
}

// Bound clips the window to a list of n elements and returns the
// half-open slice range.
func (p PaginationParams) Bound(n int) (int, int) {
	lo := (p.Page - 1) * p.PageSize
	if lo > n {
		lo = n
	}
	hi := lo + p.PageSize
	if hi > n {
		hi = n
	}
	return lo, hi
}
