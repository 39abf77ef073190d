package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	page, size := 0, 0
	assert.Equal(t, 0, Normalize(&page, &size))
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = 3, 500
	assert.Equal(t, 200, Normalize(&page, &size))
	assert.Equal(t, MaxPageSize, size)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
