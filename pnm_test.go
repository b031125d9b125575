package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pnm2x1RedGreen() []byte {
	return []byte("P3\n2 1\n255\n255 0 0 0 255 0\n")
}

func TestPNMPixmapASCII(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(pnm2x1RedGreen()), Options{})
	assert.NoError(t, err)
	assert.Equal(t, FormatPNM, GetFormat(d))
	assert.Equal(t, 2, PixelWidth(d))
	assert.Equal(t, 1, PixelHeight(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, recordedPixel{x: 0, y: 0, r: 255, g: 0, b: 0, a: 255}, sink.at(0, 0))
	assert.Equal(t, recordedPixel{x: 1, y: 0, r: 0, g: 255, b: 0, a: 255}, sink.at(1, 0))
}

func TestPNMGraymapASCIIMaxFullWhite(t *testing.T) {
	// maxval=255, sample=255: no promotion is needed, full white.
	raw := []byte("P2\n1 1\n255\n255\n")
	d, err := LoadHeader(bytes.NewReader(raw), Options{})
	assert.NoError(t, err)
	assert.True(t, Greyscale(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	px := sink.at(0, 0)
	assert.Equal(t, uint32(255), px.r)
}

// TestPNMGraymapASCIINonPowerOfTwoMaxval covers spec.md section 4.9's
// maxval as "an arbitrary integer in [1,65535]", not a 2^n-1 value: with
// maxval=100, a sample of 50 must rescale linearly to ~127/255, not decode
// unscaled as if 8 bits were already the native range.
func TestPNMGraymapASCIINonPowerOfTwoMaxval(t *testing.T) {
	raw := []byte("P2\n1 1\n100\n50\n")
	d, err := LoadHeader(bytes.NewReader(raw), Options{})
	assert.NoError(t, err)

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	px := sink.at(0, 0)
	assert.Equal(t, uint32(127), px.r) // 50*255/100 = 127.5, truncated
}

func TestPNMBitmapBinary(t *testing.T) {
	// P4, 8x1 bitmap: one row byte 0b10000000 -> black pixel at x=0, white
	// elsewhere (PNM convention: 1 = black).
	var b bytes.Buffer
	b.WriteString("P4\n8 1\n")
	b.WriteByte(0x80)
	d, err := LoadHeader(bytes.NewReader(b.Bytes()), Options{})
	assert.NoError(t, err)

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0), sink.at(0, 0).r)
	assert.Equal(t, uint32(255), sink.at(1, 0).r)
}
