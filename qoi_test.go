package gid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// qoi1x1RGBA is spec.md section 8's S4 fixture: a 1x1 RGBA image encoded
// with a single QOI_OP_RGBA chunk, terminated by the mandated 8-byte end
// marker.
func qoi1x1RGBA() []byte {
	var b bytes.Buffer
	b.WriteString("qoif")
	b.Write([]byte{0x00, 0x00, 0x00, 0x01}) // width = 1
	b.Write([]byte{0x00, 0x00, 0x00, 0x01}) // height = 1
	b.WriteByte(0x04)                       // channels = RGBA
	b.WriteByte(0x00)                       // colorspace = sRGB
	b.Write([]byte{0xFF, 0x10, 0x20, 0x30, 0x40})
	b.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0x01}) // end marker
	return b.Bytes()
}

func TestQOIRGBAPixel(t *testing.T) {
	d, err := LoadHeader(bytes.NewReader(qoi1x1RGBA()), Options{})
	assert.NoError(t, err)
	assert.Equal(t, FormatQOI, GetFormat(d))
	assert.True(t, ExpectTransparency(d))

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.NoError(t, err)
	assert.Equal(t, recordedPixel{x: 0, y: 0, r: 16, g: 32, b: 48, a: 64}, sink.at(0, 0))
}

func TestQOIMalformedEndMarkerRejected(t *testing.T) {
	raw := qoi1x1RGBA()
	raw[len(raw)-1] = 0x02 // corrupt the mandated trailing 0x01
	d, err := LoadHeader(bytes.NewReader(raw), Options{})
	assert.NoError(t, err)

	sink := newRecSink()
	_, err = LoadContents(d, sink, Fast)
	assert.Error(t, err)
	gerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindDataError, gerr.Kind)
}
