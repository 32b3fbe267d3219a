package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionCommutativeAndCovering(t *testing.T) {
	spans := []Span{
		Range(1, 1, 1, 5),
		Range(1, 3, 2, 1),
		Range(2, 4, 2, 9),
		Range(3, 1, 7, 2),
		Point(1, 7),
		Point(2, 4),
		{Start: Pos{Line: 4}, End: Pos{Line: 4}},
	}

	for _, a := range spans {
		for _, b := range spans {
			ab := Union(a, b)
			ba := Union(b, a)
			assert.Equal(t, ab, ba, "union(%s, %s) not commutative", a, b)

			assert.False(t, a.Start.Before(ab.Start), "start of %s before union %s", a, ab)
			assert.False(t, b.Start.Before(ab.Start), "start of %s before union %s", b, ab)
			assert.False(t, ab.End.Before(a.End), "union %s ends before %s", ab, a)
			assert.False(t, ab.End.Before(b.End), "union %s ends before %s", ab, b)
		}
	}
}

func TestUnionTieBreaks(t *testing.T) {
	got := Union(Range(3, 5, 3, 8), Range(3, 2, 3, 6))
	assert.Equal(t, Range(3, 2, 3, 8), got)
}

func TestUnionIgnoresAbsentParts(t *testing.T) {
	assert.Equal(t, Range(2, 1, 2, 4), Union(Span{}, Range(2, 1, 2, 4)))
	assert.True(t, Union(Span{}, Span{}).IsZero())

	partial := Span{Start: Pos{Line: 5}}
	got := Union(partial, Range(5, 3, 6, 1))
	assert.Equal(t, Pos{Line: 5, Col: 3}, got.Start)
	assert.Equal(t, Pos{Line: 6, Col: 1}, got.End)
}

func TestString(t *testing.T) {
	assert.Equal(t, "?", Span{}.String())
	assert.Equal(t, "1:4", Point(1, 4).String())
	assert.Equal(t, "1:4-2:7", Range(1, 4, 2, 7).String())
	assert.Equal(t, "3", Span{Start: Pos{Line: 3}}.String())
}
