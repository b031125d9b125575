package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromoteIdentity(t *testing.T) {
	assert.Equal(t, uint32(200), promote(200, 8, 8))
}

func TestPromoteMonotonicEndpoints(t *testing.T) {
	for _, w := range []int{8, 10, 12, 16} {
		assert.Equal(t, uint32(0), promote(0, 8, w), "zero must promote to zero at width %d", w)
		assert.Equal(t, uint32(1<<uint(w))-1, promote(255, 8, w), "max must promote to max at width %d", w)
	}
}

func TestPromoteNarrowing(t *testing.T) {
	assert.Equal(t, uint32(0xFF), promote(0xFFFF, 16, 8))
}

func TestPromoteBitReplication(t *testing.T) {
	assert.Equal(t, uint32(0), promote(0, 1, 8))
	assert.Equal(t, uint32(255), promote(1, 1, 8))
}

func TestValidatePrimaryWidthRange(t *testing.T) {
	assert.NoError(t, validatePrimaryWidth(8))
	assert.NoError(t, validatePrimaryWidth(16))
	err := validatePrimaryWidth(7)
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindInvalidPrimaryColorRange, gerr.Kind)
}

func TestLoadContentsRejectsInvalidPrimaryWidth(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(bmp2x1Red()), Options{})
	assert.NoError(t, err)
	sink := newRecSink()
	sink.primaryWidth = 4
	_, err = LoadContents(d, sink, Fast)
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindInvalidPrimaryColorRange, gerr.Kind)
}

func TestPaethPurity(t *testing.T) {
	assert.Equal(t, 0, paethPredictor(0, 0, 0))
	assert.Equal(t, 255, paethPredictor(255, 0, 0))
}

func TestPaletteIndexOutOfRange(t *testing.T) {
	pal := []RGB{{R: 1, G: 2, B: 3}}
	_, err := paletteIndex(pal, 1)
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindDataError, gerr.Kind)
}
