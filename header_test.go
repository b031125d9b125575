package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownSignatureRejected(t *testing.T) {
	_, err := LoadHeader(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}), Options{})
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindUnknownFormat, gerr.Kind)
}

func TestUnknownSignatureFallsBackToTGAWhenEnabled(t *testing.T) {
	// The same opaque byte stream, with TryTGA set, is consumed as a TGA ID
	// length (0x00) + color map type (0x01); color-mapped TGA is rejected,
	// but as unsupported-subformat rather than unknown-format, proving the
	// dispatcher actually tried TGA instead of giving up.
	d, err := LoadHeader(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}), Options{TryTGA: true})
	assert.Nil(t, d)
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindUnsupportedSubformat, gerr.Kind)
}

func TestEachFormatSignatureDispatches(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want Format
	}{
		{"BMP", bmp2x1Red(), FormatBMP},
		{"GIF", gif1x1White(), FormatGIF},
		{"PNG", png2x1Grey(), FormatPNG},
		{"QOI", qoi1x1RGBA(), FormatQOI},
		{"JPEG", jpeg1x1Grey(), FormatJPEG},
		{"PNM", pnm2x1RedGreen(), FormatPNM},
	}
	for _, c := range cases {
		d, err := LoadHeader(bytes.NewReader(c.raw), Options{})
		assert.NoError(t, err, c.name)
		assert.Equal(t, c.want, GetFormat(d), c.name)
	}
}
