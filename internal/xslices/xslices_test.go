package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	even := Filter([]int{1, 2, 3, 4, 5, 6}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4, 6}, even)
	assert.Empty(t, Filter([]int(nil), func(int) bool { return true }))
}
