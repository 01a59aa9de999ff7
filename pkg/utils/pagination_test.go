package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams_Clamps(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, Limit: 0}, GetPaginationParams(0, -1))
	assert.Equal(t, PaginationParams{Page: 3, Limit: 25}, GetPaginationParams(3, 25))
}

func TestBounded(t *testing.T) {
	assert.Equal(t, 20, GetPaginationParams(1, 0).Bounded(20, 100).Limit)
	assert.Equal(t, 100, GetPaginationParams(2, 500).Bounded(20, 100).Limit)
	assert.Equal(t, 5, GetPaginationParams(1, 5).Bounded(20, 0).Limit)
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, PaginationParams{Page: 1, Limit: 20}.CalculateOffset())
	assert.Equal(t, 40, PaginationParams{Page: 3, Limit: 20}.CalculateOffset())
	assert.Equal(t, 0, PaginationParams{Page: 4, Limit: 0}.CalculateOffset())
	assert.Equal(t, 100, GetPaginationParams(2, 500).Bounded(20, 100).CalculateOffset())
}

func TestCalculateMeta(t *testing.T) {
	meta := CalculateMeta(41, 2, 20)
	assert.Equal(t, PaginationMeta{Page: 2, Limit: 20, TotalCount: 41, TotalPages: 3, HasMore: true}, meta)

	last := CalculateMeta(40, 2, 20)
	assert.Equal(t, 2, last.TotalPages)
	assert.False(t, last.HasMore)

	empty := CalculateMeta(0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasMore)

	all := CalculateMeta(15, 3, 0)
	assert.Equal(t, PaginationMeta{Page: 1, Limit: 15, TotalCount: 15, TotalPages: 1}, all)
}
