package gid

// QOI header and body, per spec.md section 4.10. Grounded on
// other_examples/rainrambler-QOIGO__qoi.go (header/tag constants) and
// clfs-qoi/qoi.go (idiomatic running-hash decode loop, end-marker check).

const (
	qoiOpIndex = 0x00 // 00xxxxxx
	qoiOpDiff  = 0x40 // 01xxxxxx
	qoiOpLuma  = 0x80 // 10xxxxxx
	qoiOpRun   = 0xC0 // 11xxxxxx
	qoiOpRGB   = 0xFE
	qoiOpRGBA  = 0xFF
	qoiMask2   = 0xC0
)

type qoiState struct {
	channels   int
	colorspace int
}

func parseQOIHeader(d *Descriptor) error {
	d.format = FormatQOI

	width, err := d.buf.ReadUint32(BigEndian)
	if err != nil {
		return err
	}
	height, err := d.buf.ReadUint32(BigEndian)
	if err != nil {
		return err
	}
	channels, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	colorspace, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	if channels != 3 && channels != 4 {
		return newErr(KindDataError, "invalid QOI channel count")
	}
	if width == 0 || height == 0 {
		return newErr(KindDataError, "invalid QOI dimensions")
	}

	d.width = int(width)
	d.height = int(height)
	d.bitsPerPixel = int(channels) * 8
	d.transparency = channels == 4
	d.detailedFormat = "QOI"
	d.subformatID = int(colorspace)
	d.orientation = OrientUnchanged
	d.qoi = &qoiState{channels: int(channels), colorspace: int(colorspace)}
	return nil
}

func decodeQOIBody(d *Descriptor, sink Sink) error {
	width, height := d.width, d.height

	var table [64]RGB
	tableA := [64]byte{}
	for i := range tableA {
		tableA[i] = 255
	}
	px := RGB{}
	var alpha byte = 255

	total := width * height
	endRun := 0

	for i := 0; i < total; i++ {
		x := i % width
		y := i / width
		if x == 0 {
			sink.SetXY(0, y)
		}

		tag, err := d.buf.ReadByte()
		if err != nil {
			return err
		}

		switch {
		case tag == qoiOpRGB:
			var rgb [3]byte
			if err := d.buf.ReadBytes(rgb[:]); err != nil {
				return err
			}
			px = RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
		case tag == qoiOpRGBA:
			var rgba [4]byte
			if err := d.buf.ReadBytes(rgba[:]); err != nil {
				return err
			}
			px = RGB{R: rgba[0], G: rgba[1], B: rgba[2]}
			alpha = rgba[3]
		case tag&qoiMask2 == qoiOpIndex:
			idx := tag & 0x3F
			px = table[idx]
			alpha = tableA[idx]
		case tag&qoiMask2 == qoiOpDiff:
			dr := int((tag>>4)&0x03) - 2
			dg := int((tag>>2)&0x03) - 2
			db := int(tag&0x03) - 2
			px = RGB{
				R: byte(int(px.R) + dr),
				G: byte(int(px.G) + dg),
				B: byte(int(px.B) + db),
			}
		case tag&qoiMask2 == qoiOpLuma:
			b2, err := d.buf.ReadByte()
			if err != nil {
				return err
			}
			dg := int(tag&0x3F) - 32
			dr := dg + int((b2>>4)&0x0F) - 8
			db := dg + int(b2&0x0F) - 8
			px = RGB{
				R: byte(int(px.R) + dr),
				G: byte(int(px.G) + dg),
				B: byte(int(px.B) + db),
			}
		case tag&qoiMask2 == qoiOpRun:
			run := int(tag & 0x3F)
			endRun = run // emit current pixel `run` more times after this one
		}

		hash := (int(px.R)*3 + int(px.G)*5 + int(px.B)*7 + int(alpha)*11) % 64
		table[hash] = px
		tableA[hash] = alpha

		putPixel8(sink, px.R, px.G, px.B, alpha)
		for endRun > 0 && i+1 < total {
			i++
			x := i % width
			if x == 0 {
				sink.SetXY(0, i/width)
			}
			putPixel8(sink, px.R, px.G, px.B, alpha)
			endRun--
		}
		if i%width == 0 {
			sink.Feedback((y + 1) * 100 / height)
		}
	}

	return consumeQOIEndMarker(d)
}

// consumeQOIEndMarker reads the mandated 7 zero bytes + one 0x01 byte
// trailer per spec.md section 4.10 and section 8 invariant 8. Any bytes
// after it are ignored, as the stream may be embedded in a larger
// container.
func consumeQOIEndMarker(d *Descriptor) error {
	var marker [8]byte
	if err := d.buf.ReadBytes(marker[:]); err != nil {
		return err
	}
	for i := 0; i < 7; i++ {
		if marker[i] != 0x00 {
			return newErr(KindDataError, "malformed QOI end marker")
		}
	}
	if marker[7] != 0x01 {
		return newErr(KindDataError, "malformed QOI end marker")
	}
	return nil
}
