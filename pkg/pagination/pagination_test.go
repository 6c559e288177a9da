package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClampsParams(t *testing.T) {
	p := &Params{Page: 0, PerPage: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	p = &Params{Page: 3, PerPage: 0}
	p.Normalize()
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 30, p.Offset())
}

func TestNewPage(t *testing.T) {
	res := NewPage[int](nil, &Params{Page: 2, PerPage: 10}, 25)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 3, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	assert.True(t, res.Pagination.HasPrev)

	empty := NewPage([]string{}, DefaultParams(), 0)
	assert.Zero(t, empty.Pagination.TotalPages)
	assert.False(t, empty.Pagination.HasNext)
}
