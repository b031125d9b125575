package gid

// BMP header and body, per spec.md section 4.5. Grounded on
// other_examples/jsummers-gobmp__reader.go (row decoders per bit depth,
// palette bounds check) and other_examples/fumiama-imgsz__bmp.go (header
// field order).

const (
	biRGB      = 0
	biRLE8     = 1
	biRLE4     = 2
	biBitFields = 3
)

type bmpState struct {
	dataOffset   int
	bitCount     int
	compression  uint32
	rowSize      int // padded row size in bytes
}

func parseBMPHeader(d *Descriptor) error {
	d.format = FormatBMP

	var hdr [12]byte // fileSize(4) reserved(4) dataOffset(4)
	if err := d.buf.ReadBytes(hdr[:]); err != nil {
		return err
	}
	dataOffset := le32(hdr[8:12])

	headerSize, err := d.buf.ReadUint32(LittleEndian)
	if err != nil {
		return err
	}
	if headerSize == 12 {
		return newErr(KindUnsupportedSubformat, "OS/2 BITMAPCOREHEADER is not supported")
	}
	if headerSize < 40 {
		return newErr(KindDataError, "unrecognized BMP DIB header size")
	}

	width, err := d.buf.ReadInt32(LittleEndian)
	if err != nil {
		return err
	}
	height, err := d.buf.ReadInt32(LittleEndian)
	if err != nil {
		return err
	}
	topDown := height < 0
	if topDown {
		height = -height
	}
	if width <= 0 || height <= 0 {
		return newErr(KindDataError, "invalid BMP dimensions")
	}

	if _, err := d.buf.ReadUint16(LittleEndian); err != nil { // planes
		return err
	}
	bitCount, err := d.buf.ReadUint16(LittleEndian)
	if err != nil {
		return err
	}
	compression, err := d.buf.ReadUint32(LittleEndian)
	if err != nil {
		return err
	}
	if compression == biRLE8 || compression == biRLE4 {
		return newErr(KindUnsupportedSubformat, "BMP RLE compression is not supported")
	}
	if compression != biRGB {
		return newErr(KindUnsupportedSubformat, "unsupported BMP compression mode")
	}
	switch bitCount {
	case 1, 4, 8, 24:
	default:
		return newErr(KindUnsupportedSubformat, "unsupported BMP bit depth")
	}

	// imageSize, xppm, yppm, clrUsed, clrImportant: skip to the clrUsed
	// field at offset 32 of the DIB header. So far 20 of its 40 core bytes
	// are consumed (headerSize, then width, height, planes, bitCount,
	// compression), so 3 fields of 4 bytes remain before clrUsed:
	// imageSize, xppm, yppm (12 bytes), then clrUsed, clrImportant.
	var skip [12]byte
	if err := d.buf.ReadBytes(skip[:]); err != nil {
		return err
	}
	clrUsed, err := d.buf.ReadUint32(LittleEndian)
	if err != nil {
		return err
	}
	if _, err := d.buf.ReadUint32(LittleEndian); err != nil { // clrImportant
		return err
	}
	// Consume any remaining DIB header bytes beyond the 40-byte V3 core.
	if extra := int(headerSize) - 40; extra > 0 {
		rest := make([]byte, extra)
		if err := d.buf.ReadBytes(rest); err != nil {
			return err
		}
	}

	d.width = int(width)
	d.height = int(height)
	d.topFirst = topDown
	d.bitsPerPixel = int(bitCount)
	d.rleEncoded = false

	var palEntries int
	if bitCount <= 8 {
		palEntries = int(clrUsed)
		if palEntries == 0 {
			palEntries = 1 << bitCount
		}
		palData := make([]byte, palEntries*4)
		if err := d.buf.ReadBytes(palData); err != nil {
			return err
		}
		pal, err := loadPaletteBGRx(palData, palEntries)
		if err != nil {
			return err
		}
		d.palette = pal
	}

	rowSize := ((int(bitCount)*int(width) + 31) / 32) * 4

	extraSkip := int(dataOffset) - (14 + int(headerSize) + palEntries*4)
	if extraSkip > 0 {
		junk := make([]byte, extraSkip)
		if err := d.buf.ReadBytes(junk); err != nil {
			return err
		}
	}

	d.detailedFormat = "BMP"
	d.subformatID = int(bitCount)
	d.orientation = OrientUnchanged
	d.bmp = &bmpState{dataOffset: int(dataOffset), bitCount: int(bitCount), compression: compression, rowSize: rowSize}
	return nil
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func decodeBMPBody(d *Descriptor, sink Sink) error {
	st := d.bmp
	width, height := d.width, d.height

	rows := make([][]byte, height)
	for y := 0; y < height; y++ {
		row := make([]byte, st.rowSize)
		if err := d.buf.ReadBytes(row); err != nil {
			return err
		}
		outY := y
		if !d.topFirst {
			outY = height - 1 - y
		}
		rows[outY] = row
	}

	for y := 0; y < height; y++ {
		row := rows[y]
		sink.SetXY(0, y)
		for x := 0; x < width; x++ {
			var rgb RGB
			switch st.bitCount {
			case 1:
				bit := (row[x/8] >> uint(7-x%8)) & 1
				var err error
				rgb, err = paletteIndex(d.palette, int(bit))
				if err != nil {
					return err
				}
			case 4:
				var v byte
				if x%2 == 0 {
					v = row[x/2] >> 4
				} else {
					v = row[x/2] & 0x0F
				}
				var err error
				rgb, err = paletteIndex(d.palette, int(v))
				if err != nil {
					return err
				}
			case 8:
				var err error
				rgb, err = paletteIndex(d.palette, int(row[x]))
				if err != nil {
					return err
				}
			case 24:
				off := x * 3
				rgb = RGB{R: row[off+2], G: row[off+1], B: row[off]}
			}
			putPixel8(sink, rgb.R, rgb.G, rgb.B, 255)
		}
		sink.Feedback((y + 1) * 100 / height)
	}
	return nil
}
