package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// tga1x1Red builds a minimal uncompressed 24-bit TGA with a single red
// pixel. TGA has no magic bytes, so it is only reachable via Options.TryTGA.
func tga1x1Red() []byte {
	var b bytes.Buffer
	b.WriteByte(0x00)                         // ID length
	b.WriteByte(0x00)                         // color map type: none
	b.WriteByte(0x02)                         // image type: uncompressed RGB
	b.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x00}) // color map spec
	b.Write([]byte{0x00, 0x00})               // x origin
	b.Write([]byte{0x00, 0x00})               // y origin
	b.Write([]byte{0x01, 0x00})               // width = 1
	b.Write([]byte{0x01, 0x00})               // height = 1
	b.WriteByte(0x18)                         // depth = 24
	b.WriteByte(0x00)                         // image descriptor
	b.Write([]byte{0x00, 0x00, 0xFF})         // B,G,R = red
	return b.Bytes()
}

func TestTGARedPixelRequiresTryTGA(t *testing.T) {
	_, err := LoadHeader(bytes.NewReader(tga1x1Red()), Options{})
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindUnknownFormat, gerr.Kind)
}

func TestTGARedPixel(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(tga1x1Red()), Options{TryTGA: true})
	assert.NoError(t, err)
	assert.Equal(t, FormatTGA, GetFormat(d))
	assert.Equal(t, 1, PixelWidth(d))
	assert.Equal(t, 1, PixelHeight(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, recordedPixel{x: 0, y: 0, r: 255, g: 0, b: 0, a: 255}, sink.at(0, 0))
}

// tga2x2RLE builds a 2x2 RLE-compressed 8-bit greyscale TGA whose single
// run-length packet straddles the scanline boundary, exercising
// readTGARLEPlane's whole-plane decode.
func tga2x2RLE() []byte {
	var b bytes.Buffer
	b.WriteByte(0x00)
	b.WriteByte(0x00)
	b.WriteByte(0x0B) // image type: RLE greyscale
	b.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x00})
	b.Write([]byte{0x00, 0x00})
	b.Write([]byte{0x00, 0x00})
	b.Write([]byte{0x02, 0x00}) // width = 2
	b.Write([]byte{0x02, 0x00}) // height = 2
	b.WriteByte(0x08)           // depth = 8
	b.WriteByte(0x20)           // top-first
	// One RLE packet: run of 4 identical bytes (0x80 | 3) covering both rows.
	b.WriteByte(0x83)
	b.WriteByte(0x7F)
	return b.Bytes()
}

func TestTGARLEAcrossScanlines(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(tga2x2RLE()), Options{TryTGA: true})
	assert.NoError(t, err)
	assert.True(t, IsRLE(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	for _, p := range []struct{ x, y int }{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		px := sink.at(p.x, p.y)
		assert.Equal(t, uint32(0x7F), px.r)
		assert.Equal(t, uint32(0x7F), px.g)
		assert.Equal(t, uint32(0x7F), px.b)
	}
}
