package gid

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// PNG header and body, per spec.md section 4.8. Grounded on
// other_examples/golang-image__png_reader.go's IHDR/PLTE/tRNS/IDAT
// dispatch and bit-unpacking-per-depth loop; inflate is wired to
// klauspost/compress/zlib rather than stdlib compress/zlib, matching
// this module's domain-stack choice for every DEFLATE consumer.

const (
	pngColorGrey       = 0
	pngColorRGB        = 2
	pngColorPalette    = 3
	pngColorGreyAlpha  = 4
	pngColorRGBA       = 6
)

type pngState struct {
	colorType byte
	bitDepth  byte
	interlace byte
	idat      []byte
	trns      []byte
}

func parsePNGHeader(d *Descriptor) error {
	d.format = FormatPNG
	d.detailedFormat = "PNG"
	st := &pngState{}
	d.png = st

	chunk, err := readPNGChunk(d)
	if err != nil {
		return err
	}
	if chunk.kind != "IHDR" || len(chunk.data) < 13 {
		return newErr(KindDataError, "PNG stream does not begin with IHDR")
	}
	width := int(chunk.data[0])<<24 | int(chunk.data[1])<<16 | int(chunk.data[2])<<8 | int(chunk.data[3])
	height := int(chunk.data[4])<<24 | int(chunk.data[5])<<16 | int(chunk.data[6])<<8 | int(chunk.data[7])
	if width <= 0 || height <= 0 {
		return newErr(KindDataError, "invalid PNG dimensions")
	}
	st.bitDepth = chunk.data[8]
	st.colorType = chunk.data[9]
	compMethod := chunk.data[10]
	filterMethod := chunk.data[11]
	st.interlace = chunk.data[12]

	if compMethod != 0 || filterMethod != 0 {
		return newErr(KindUnsupportedSubformat, "unrecognized PNG compression/filter method")
	}
	switch st.colorType {
	case pngColorGrey, pngColorRGB, pngColorPalette, pngColorGreyAlpha, pngColorRGBA:
	default:
		return newErr(KindDataError, "unrecognized PNG color type")
	}
	if st.interlace > 1 {
		return newErr(KindUnsupportedSubformat, "unrecognized PNG interlace method")
	}

	d.width = width
	d.height = height
	d.greyscale = st.colorType == pngColorGrey || st.colorType == pngColorGreyAlpha
	d.interlaced = st.interlace == 1
	d.subformatID = int(st.colorType)
	d.orientation = OrientUnchanged

	switch st.colorType {
	case pngColorGrey:
		d.bitsPerPixel = int(st.bitDepth)
	case pngColorGreyAlpha:
		d.bitsPerPixel = int(st.bitDepth) * 2
	case pngColorRGB:
		d.bitsPerPixel = int(st.bitDepth) * 3
	case pngColorRGBA:
		d.bitsPerPixel = int(st.bitDepth) * 4
	case pngColorPalette:
		d.bitsPerPixel = int(st.bitDepth)
	}

	// Read ahead through PLTE/tRNS/IDAT/IEND; everything else (tEXt,
	// gAMA, pHYs, ...) is skipped, matching spec.md's "decoders ignore
	// ancillary chunks they do not model" rule.
	for {
		chunk, err := readPNGChunk(d)
		if err != nil {
			return err
		}
		switch chunk.kind {
		case "PLTE":
			if len(chunk.data)%3 != 0 {
				return newErr(KindDataError, "malformed PNG palette")
			}
			pal, err := loadPaletteRGB(chunk.data, len(chunk.data)/3)
			if err != nil {
				return err
			}
			d.palette = pal
		case "tRNS":
			if st.colorType == pngColorPalette && len(chunk.data) > len(d.palette) {
				return newErr(KindDataError, "PNG tRNS has more entries than the palette")
			}
			st.trns = append([]byte{}, chunk.data...)
			d.transparency = true
		case "IDAT":
			st.idat = append(st.idat, chunk.data...)
		case "IEND":
			return nil
		}
		if chunk.kind == "IDAT" {
			// The remaining IDAT/IEND chunks go through the same switch:
			// IDATs must be contiguous per the PNG spec, but a handful of
			// encoders interleave harmless ancillary chunks, which the
			// switch skips just as it does before the first IDAT.
			continue
		}
	}
}

func decodePNGBody(d *Descriptor, sink Sink, mode Mode) error {
	st := d.png
	zr, err := zlib.NewReader(bytes.NewReader(st.idat))
	if err != nil {
		return wrapErr(KindDataError, "opening PNG zlib stream", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return wrapErr(KindDataError, "inflating PNG image data", err)
	}

	channels := pngChannels(st.colorType)
	bpp := (channels*int(st.bitDepth) + 7) / 8
	if bpp < 1 {
		bpp = 1
	}

	if !d.interlaced {
		return decodePNGPlane(d, sink, raw, d.width, d.height, 0, 0, 1, 1, channels, bpp)
	}

	offset := 0
	for passIdx, p := range adam7Passes {
		pw, ph := adam7PassDims(d.width, d.height, p)
		if pw == 0 || ph == 0 {
			continue
		}
		rowBytes := (pw*channels*int(st.bitDepth) + 7) / 8
		passLen := ph * (rowBytes + 1)
		if offset+passLen > len(raw) {
			return newErr(KindDataError, "truncated PNG interlaced data")
		}
		passData := raw[offset : offset+passLen]
		offset += passLen
		if err := decodePNGPlane(d, sink, passData, pw, ph, p.xStart, p.yStart, p.xStride, p.yStride, channels, bpp); err != nil {
			return err
		}
		_ = passIdx
		if mode == Nice {
			sink.Feedback((passIdx + 1) * 100 / 7)
		}
	}
	return nil
}

func pngChannels(colorType byte) int {
	switch colorType {
	case pngColorGrey:
		return 1
	case pngColorGreyAlpha:
		return 2
	case pngColorRGB:
		return 3
	case pngColorRGBA:
		return 4
	case pngColorPalette:
		return 1
	}
	return 1
}

// decodePNGPlane unfilters and emits one Adam7 pass (or the whole image
// for non-interlaced PNGs, as the degenerate xStride=yStride=1 case).
func decodePNGPlane(d *Descriptor, sink Sink, data []byte, pw, ph, xStart, yStart, xStride, yStride, channels, bpp int) error {
	st := d.png
	rowBytes := (pw*channels*int(st.bitDepth) + 7) / 8
	prev := make([]byte, rowBytes)
	cur := make([]byte, rowBytes)

	pos := 0
	for row := 0; row < ph; row++ {
		if pos+1+rowBytes > len(data) {
			return newErr(KindDataError, "truncated PNG scanline data")
		}
		filter := data[pos]
		pos++
		copy(cur, data[pos:pos+rowBytes])
		pos += rowBytes

		if err := unfilterRow(filter, cur, prev, bpp); err != nil {
			return err
		}

		y := yStart + row*yStride
		sink.SetXY(xStart, y)
		for col := 0; col < pw; col++ {
			r, g, b, a, err := pngPixelAt(d, cur, col, channels)
			if err != nil {
				return err
			}
			if xStride != 1 {
				sink.SetXY(xStart+col*xStride, y)
			}
			inWidth := 8
			if st.bitDepth == 16 {
				inWidth = 16
			}
			putPixelN(sink, r, g, b, a, inWidth)
		}

		copy(prev, cur)
		if (row+1)%64 == 0 || row == ph-1 {
			sink.Feedback((row + 1) * 100 / ph)
		}
	}
	return nil
}

func pngPixelAt(d *Descriptor, row []byte, col, channels int) (r, g, b, a uint32, err error) {
	st := d.png
	// rawSample returns the sample at its native bit depth, unpromoted;
	// tRNS color-key comparisons (spec.md section 4.8) must happen in
	// this native scale, not the caller's promoted primary-color range.
	rawSample := func(ch int) uint32 {
		bitPos := (col*channels + ch) * int(st.bitDepth)
		switch st.bitDepth {
		case 8:
			return uint32(row[bitPos/8])
		case 16:
			off := bitPos / 8
			return uint32(row[off])<<8 | uint32(row[off+1])
		default:
			byteIdx := bitPos / 8
			shift := 8 - int(st.bitDepth) - (bitPos % 8)
			mask := byte(1<<st.bitDepth) - 1
			return uint32((row[byteIdx] >> uint(shift)) & mask)
		}
	}
	sample := func(ch int) uint32 {
		raw := rawSample(ch)
		if st.bitDepth == 16 {
			return raw
		}
		return promote(raw, int(st.bitDepth), 8)
	}

	switch st.colorType {
	case pngColorGrey:
		v := sample(0)
		av := alphaForGrey(st, rawSample(0))
		if st.bitDepth == 16 {
			av = promote(av, 8, 16)
		}
		return v, v, v, av, nil
	case pngColorGreyAlpha:
		v, av := sample(0), sample(1)
		return v, v, v, av, nil
	case pngColorRGB:
		rv, gv, bv := sample(0), sample(1), sample(2)
		av := alphaForRGB(st, rawSample(0), rawSample(1), rawSample(2))
		if st.bitDepth == 16 {
			av = promote(av, 8, 16)
		}
		return rv, gv, bv, av, nil
	case pngColorRGBA:
		rv, gv, bv, av := sample(0), sample(1), sample(2), sample(3)
		return rv, gv, bv, av, nil
	case pngColorPalette:
		idx := int(rawSample(0))
		rgb, err := paletteIndex(d.palette, idx)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		av := uint32(255)
		if idx < len(st.trns) {
			av = uint32(st.trns[idx])
		}
		return uint32(rgb.R), uint32(rgb.G), uint32(rgb.B), av, nil
	}
	return 0, 0, 0, 255, nil
}

// alphaForGrey implements tRNS-as-colorkey transparency for 8/16-bit
// greyscale images: tRNS for non-palette images stores one exact sample
// value (2 bytes, big-endian) that should render fully transparent.
func alphaForGrey(st *pngState, raw uint32) uint32 {
	if len(st.trns) < 2 {
		return 255
	}
	key := uint32(st.trns[0])<<8 | uint32(st.trns[1])
	if raw == key {
		return 0
	}
	return 255
}

func alphaForRGB(st *pngState, r8, g8, b8 uint32) uint32 {
	if len(st.trns) < 6 {
		return 255
	}
	kr := uint32(st.trns[0])<<8 | uint32(st.trns[1])
	kg := uint32(st.trns[2])<<8 | uint32(st.trns[3])
	kb := uint32(st.trns[4])<<8 | uint32(st.trns[5])
	if r8 == kr && g8 == kg && b8 == kb {
		return 0
	}
	return 255
}
