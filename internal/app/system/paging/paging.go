// Package paging computes offset pagination for the admin listings.
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in a page.
const PageSize = 50

// ParsePage extracts the 1-based "page" query parameter. Missing or invalid
// values mean page 1.
func ParsePage(r *http.Request) int {
	s := query.Get(r, "page")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset is the number of rows to skip to reach page.
func Offset(page int) int64 {
	if page < 1 {
		page = 1
	}
	return int64(page-1) * PageSize
}

// Info describes where a page sits in the full result.
type Info struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	Total      int64 `json:"total"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
}

// Compute returns the page info for page out of total rows.
func Compute(page int, total int64) Info {
	if page < 1 {
		page = 1
	}
	pages := int((total + PageSize - 1) / PageSize)
	if pages == 0 {
		pages = 1
	}
	return Info{
		Page:       page,
		TotalPages: pages,
		Total:      total,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}
