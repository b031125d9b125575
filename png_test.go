package gid

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func pngChunkBytes(kind string, data []byte) []byte {
	var b bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	b.Write(lenBuf[:])
	b.WriteString(kind)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc.Sum32())
	b.Write(crcBuf[:])
	return b.Bytes()
}

// png2x1Grey builds spec.md section 8's S3 fixture: a 2x1, 8-bit greyscale
// PNG with one unfiltered scanline holding samples 64 and 192, compressed
// with a real DEFLATE stream via the same klauspost/compress/zlib package
// decodePNGBody inflates with.
func png2x1Grey() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 2) // width
	binary.BigEndian.PutUint32(ihdr[4:8], 1) // height
	ihdr[8] = 8                              // bit depth
	ihdr[9] = pngColorGrey                   // color type
	ihdr[10] = 0                             // compression method
	ihdr[11] = 0                             // filter method
	ihdr[12] = 0                             // interlace method

	var idatRaw bytes.Buffer
	idatRaw.WriteByte(0) // filter type: none
	idatRaw.Write([]byte{64, 192})

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(idatRaw.Bytes())
	zw.Close()

	var b bytes.Buffer
	b.Write(pngSignature)
	b.Write(pngChunkBytes("IHDR", ihdr))
	b.Write(pngChunkBytes("IDAT", compressed.Bytes()))
	b.Write(pngChunkBytes("IEND", nil))
	return b.Bytes()
}

// png1x1Grey16 builds a 1x1, 16-bit greyscale PNG whose single sample is
// 0x1234 — a value whose low byte carries real information, to catch any
// decode path that truncates 16-bit samples to their high byte before
// handing them to the sink.
func png1x1Grey16() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1) // width
	binary.BigEndian.PutUint32(ihdr[4:8], 1) // height
	ihdr[8] = 16                             // bit depth
	ihdr[9] = pngColorGrey                   // color type
	ihdr[10] = 0
	ihdr[11] = 0
	ihdr[12] = 0

	var idatRaw bytes.Buffer
	idatRaw.WriteByte(0) // filter type: none
	idatRaw.Write([]byte{0x12, 0x34})

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(idatRaw.Bytes())
	zw.Close()

	var b bytes.Buffer
	b.Write(pngSignature)
	b.Write(pngChunkBytes("IHDR", ihdr))
	b.Write(pngChunkBytes("IDAT", compressed.Bytes()))
	b.Write(pngChunkBytes("IEND", nil))
	return b.Bytes()
}

// TestPNG16BitSampleSurvivesToA16BitSink asserts a native 16-bit PNG sample
// reaches a 16-bit sink intact rather than having its low byte silently
// dropped on the way through an 8-bit-only promotion path.
func TestPNG16BitSampleSurvivesToA16BitSink(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(png1x1Grey16()), Options{})
	assert.NoError(t, err)

	sink := newRecSink()
	sink.primaryWidth = 16
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	px := sink.at(0, 0)
	assert.Equal(t, uint32(0x1234), px.r)
	assert.Equal(t, uint32(0x1234), px.g)
	assert.Equal(t, uint32(0x1234), px.b)
}

// TestPNGTRNSLongerThanPaletteErrors covers SPEC_FULL.md section 7's
// documented tRNS-bound check: a tRNS chunk with more entries than the
// palette is unambiguously malformed.
func TestPNGTRNSLongerThanPaletteErrors(t *testing.T) {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8
	ihdr[9] = pngColorPalette
	ihdr[10] = 0
	ihdr[11] = 0
	ihdr[12] = 0

	var idatRaw bytes.Buffer
	idatRaw.WriteByte(0)
	idatRaw.WriteByte(0)
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(idatRaw.Bytes())
	zw.Close()

	var b bytes.Buffer
	b.Write(pngSignature)
	b.Write(pngChunkBytes("IHDR", ihdr))
	b.Write(pngChunkBytes("PLTE", []byte{0, 0, 0})) // one palette entry
	b.Write(pngChunkBytes("tRNS", []byte{255, 255})) // two entries: too many
	b.Write(pngChunkBytes("IDAT", compressed.Bytes()))
	b.Write(pngChunkBytes("IEND", nil))

	d, err := LoadHeader(bytes.NewReader(b.Bytes()), Options{})
	assert.Error(t, err)
	assert.Nil(t, d)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindDataError, gerr.Kind)
}

func TestPNGGreyscalePixels(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(png2x1Grey()), Options{})
	assert.NoError(t, err)
	assert.Equal(t, FormatPNG, GetFormat(d))
	assert.True(t, Greyscale(d))
	assert.Equal(t, 2, PixelWidth(d))
	assert.Equal(t, 1, PixelHeight(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, recordedPixel{x: 0, y: 0, r: 64, g: 64, b: 64, a: 255}, sink.at(0, 0))
	assert.Equal(t, recordedPixel{x: 1, y: 0, r: 192, g: 192, b: 192, a: 255}, sink.at(1, 0))
}

// TestPNGTruncatedStreamErrors covers spec.md section 8's S6 fixture: a PNG
// missing its IEND chunk must fail with error_in_image_data rather than
// hanging or returning a partial image.
func TestPNGTruncatedStreamErrors(t *testing.T) {
	full := png2x1Grey()
	truncated := full[:len(full)-12] // drop the trailing 12-byte IEND chunk (0-length data)

	d, err := LoadHeader(bytes.NewReader(truncated), Options{})
	assert.Error(t, err)
	assert.Nil(t, d)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindDataError, gerr.Kind)
}
