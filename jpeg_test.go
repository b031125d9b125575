package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// jpeg1x1Grey builds the shortest legal baseline grey JPEG per spec.md
// section 8's S5 fixture: a single 8x8 block whose DC and EOB both decode
// to zero under trivial one-code Huffman tables and a flat (all-ones)
// quantization table, leaving an all-zero dequantized block. The AAN IDCT's
// DC-only fast path then adds the level shift alone, producing grey 128.
func jpeg1x1Grey() []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8}) // SOI

	b.Write([]byte{0xFF, 0xDB, 0x00, 0x43, 0x00}) // DQT, 8-bit, table 0
	for i := 0; i < 64; i++ {
		b.WriteByte(0x01)
	}

	// DC Huffman table 0: one code of length 1, value 0 (DC category "no
	// extra bits, diff = 0").
	b.Write([]byte{0xFF, 0xC4, 0x00, 0x14, 0x00})
	b.Write([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	b.WriteByte(0x00)

	// AC Huffman table 0: one code of length 1, value 0 (run=0,size=0 ->
	// EOB).
	b.Write([]byte{0xFF, 0xC4, 0x00, 0x14, 0x10})
	b.Write([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	b.WriteByte(0x00)

	// SOF0: 8-bit precision, 1x1, 1 component (id=1, H=V=1, quant table 0).
	b.Write([]byte{0xFF, 0xC0, 0x00, 0x0B, 0x08, 0x00, 0x01, 0x00, 0x01, 0x01, 0x01, 0x11, 0x00})

	// SOS: 1 component, dcSel=acSel=0, Ss=0 Se=63 Ah=Al=0.
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})

	b.WriteByte(0x00) // entropy data: DC bit 0, AC EOB bit 0, padded

	b.Write([]byte{0xFF, 0xD9}) // EOI
	return b.Bytes()
}

func TestJPEGGreyPixel(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(jpeg1x1Grey()), Options{})
	assert.NoError(t, err)
	assert.Equal(t, FormatJPEG, GetFormat(d))
	assert.True(t, Greyscale(d))
	assert.Equal(t, 1, PixelWidth(d))
	assert.Equal(t, 1, PixelHeight(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, recordedPixel{x: 0, y: 0, r: 128, g: 128, b: 128, a: 255}, sink.at(0, 0))
}

func TestJPEGArithmeticCodingRejected(t *testing.T) {
	raw := jpeg1x1Grey()
	// SOF0 (0xC0) -> arithmetic-coded extended sequential SOF (0xC9), same
	// segment shape, which parseJPEGHeader must refuse before ever reaching
	// decodeSOF.
	for i := range raw {
		if raw[i] == 0xC0 && raw[i-1] == 0xFF {
			raw[i] = 0xC9
			break
		}
	}
	_, err := LoadHeader(bytes.NewReader(raw), Options{})
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindUnsupportedSubformat, gerr.Kind)
}
