package xslices

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	in := []int{1, 2, 3}
	out := Map(in, func(v int) string { return strconv.Itoa(v * 2) })
	assert.Equal(t, []string{"2", "4", "6"}, out)
}

func TestPop(t *testing.T) {
	slice := []int{0, 1, 2}
	var got int
	got, slice = Pop(slice)
	assert.Equal(t, 2, got)
	assert.Len(t, slice, 2)

	got, slice = Pop(slice[:0])
	assert.Equal(t, 0, got)
	assert.Empty(t, slice)
}
