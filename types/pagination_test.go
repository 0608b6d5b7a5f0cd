package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationHelperSnapsToAllowedSizes(t *testing.T) {
	p := NewPaginationHelper(2, 30)
	assert.Equal(t, 25, p.PerPage)
	assert.Equal(t, 25, p.Offset)

	p = NewPaginationHelper(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PerPage)
	assert.Equal(t, 0, p.Offset)

	p = NewPaginationHelper(1, 5)
	assert.Equal(t, DefaultPageSize, p.PerPage)

	p = NewPaginationHelper(1, 500)
	assert.Equal(t, 100, p.PerPage)
}

func TestBuildResponseComputesTotalPages(t *testing.T) {
	p := NewPaginationHelper(1, 10)
	resp := p.BuildResponse([]int{1, 2, 3}, 31)
	assert.Equal(t, 4, resp.Pagination.TotalPages)
	assert.Equal(t, 31, resp.Pagination.Total)
	assert.Equal(t, 10, resp.Pagination.PerPage)
}

func TestValidatePageSize(t *testing.T) {
	assert.NoError(t, ValidatePageSize(25))
	assert.Error(t, ValidatePageSize(33))
}
