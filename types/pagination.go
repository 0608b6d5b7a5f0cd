package types

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// AllowedPageSizes lists the page sizes the UI offers.
var AllowedPageSizes = []int{10, 25, 50, 100}

const DefaultPageSize = 10

// PaginatedResponse wraps a page of rows with its metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginationHelper normalizes page/perPage input and computes offsets.
type PaginationHelper struct {
	Page    int
	PerPage int
	Offset  int
}

// NewPaginationHelper clamps page to 1+ and snaps perPage to the nearest
// allowed size at or below the requested one.
func NewPaginationHelper(page, perPage int) *PaginationHelper {
	if page < 1 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPageSize
	}

	snapped := 0
	for _, size := range AllowedPageSizes {
		if size <= perPage {
			snapped = size
		}
	}
	if snapped == 0 {
		snapped = DefaultPageSize
	}

	return &PaginationHelper{
		Page:    page,
		PerPage: snapped,
		Offset:  (page - 1) * snapped,
	}
}

// BuildResponse assembles the page envelope from rows and a total count.
func (p *PaginationHelper) BuildResponse(data interface{}, total int) PaginatedResponse {
	totalPages := (total + p.PerPage - 1) / p.PerPage
	return PaginatedResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:       p.Page,
			PerPage:    p.PerPage,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// ParsePaginationParams reads page and perPage from the query string.
// "pageSize" is accepted as a legacy alias for perPage.
func ParsePaginationParams(c *gin.Context) *PaginationHelper {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	raw := c.Query("perPage")
	if raw == "" {
		raw = c.Query("pageSize")
	}
	perPage, _ := strconv.Atoi(raw)
	return NewPaginationHelper(page, perPage)
}

// ValidatePageSize reports whether a page size is one the UI offers.
func ValidatePageSize(perPage int) error {
	for _, size := range AllowedPageSizes {
		if perPage == size {
			return nil
		}
	}
	return fmt.Errorf("perPage must be one of: %v", AllowedPageSizes)
}
