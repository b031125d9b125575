package gid

// TGA header and body, per spec.md section 4.11. No direct corpus
// example; grounded on spec.md directly, with RLE packet unpacking
// modeled on gobmp's row-assembly idiom (other_examples/jsummers-gobmp__reader.go).

const (
	tgaImageTypeNone       = 0
	tgaImageTypeColorMap   = 1
	tgaImageTypeRGB        = 2
	tgaImageTypeGrey       = 3
	tgaImageTypeRLEColorMap = 9
	tgaImageTypeRLERGB     = 10
	tgaImageTypeRLEGrey    = 11
)

type tgaState struct {
	imageType int
	depth     int
	rle       bool
}

// parseTGAHeader reads the 17 header bytes that follow the ID-length byte
// already consumed by dispatchHeader as d.firstByte (TGA has no magic of
// its own, so the dispatcher's "first byte" doubles as the ID-length
// field here).
func parseTGAHeader(d *Descriptor) error {
	d.format = FormatTGA

	idLength := d.firstByte

	colorMapType, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	if colorMapType != 0 {
		return newErr(KindUnsupportedSubformat, "TGA color-mapped images are not supported")
	}

	imageType, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	switch imageType {
	case tgaImageTypeRGB, tgaImageTypeGrey, tgaImageTypeRLERGB, tgaImageTypeRLEGrey:
	default:
		return newErr(KindUnsupportedSubformat, "unsupported TGA image type")
	}

	var cmSpec [5]byte // color map spec: first entry(2) + length(2) + entry size(1)
	if err := d.buf.ReadBytes(cmSpec[:]); err != nil {
		return err
	}

	if _, err := d.buf.ReadUint16(LittleEndian); err != nil { // x origin
		return err
	}
	if _, err := d.buf.ReadUint16(LittleEndian); err != nil { // y origin
		return err
	}
	width, err := d.buf.ReadUint16(LittleEndian)
	if err != nil {
		return err
	}
	height, err := d.buf.ReadUint16(LittleEndian)
	if err != nil {
		return err
	}
	depth, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	switch depth {
	case 8, 24, 32:
	default:
		return newErr(KindUnsupportedSubformat, "unsupported TGA pixel depth")
	}
	imgDescriptor, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	topFirst := imgDescriptor&0x20 != 0

	if width == 0 || height == 0 {
		return newErr(KindDataError, "invalid TGA dimensions")
	}

	if idLength > 0 {
		junk := make([]byte, idLength)
		if err := d.buf.ReadBytes(junk); err != nil {
			return err
		}
	}

	rle := imageType == tgaImageTypeRLERGB || imageType == tgaImageTypeRLEGrey

	d.width = int(width)
	d.height = int(height)
	d.bitsPerPixel = int(depth)
	d.topFirst = topFirst
	d.rleEncoded = rle
	d.greyscale = imageType == tgaImageTypeGrey || imageType == tgaImageTypeRLEGrey
	d.transparency = depth == 32
	d.detailedFormat = "TGA"
	d.subformatID = int(imageType)
	d.orientation = OrientUnchanged
	d.tga = &tgaState{imageType: int(imageType), depth: int(depth), rle: rle}
	return nil
}

func decodeTGABody(d *Descriptor, sink Sink) error {
	st := d.tga
	width, height := d.width, d.height
	bytesPerPixel := st.depth / 8

	// RLE packets may straddle scanline boundaries, so decode the whole
	// pixel plane as one flat stream before splitting it into rows.
	flat := make([]byte, width*height*bytesPerPixel)
	if st.rle {
		if err := readTGARLEPlane(d, flat, bytesPerPixel); err != nil {
			return err
		}
	} else {
		if err := d.buf.ReadBytes(flat); err != nil {
			return err
		}
	}

	rows := make([][]byte, height)
	for y := 0; y < height; y++ {
		row := flat[y*width*bytesPerPixel : (y+1)*width*bytesPerPixel]
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
			off := x * bytesPerPixel
			var r, g, b, a byte = 0, 0, 0, 255
			switch bytesPerPixel {
			case 1:
				r, g, b = row[off], row[off], row[off]
			case 3:
				b, g, r = row[off], row[off+1], row[off+2]
			case 4:
				b, g, r, a = row[off], row[off+1], row[off+2], row[off+3]
			}
			putPixel8(sink, r, g, b, a)
		}
		sink.Feedback((y + 1) * 100 / height)
	}
	return nil
}

// readTGARLEPlane fills the entire pixel plane from a run of RLE packets.
// Packets are free to straddle scanline boundaries; spec.md section 4.11
// defines them purely in terms of the pixel stream, not the row grid.
func readTGARLEPlane(d *Descriptor, dst []byte, bpp int) error {
	filled := 0
	for filled < len(dst) {
		header, err := d.buf.ReadByte()
		if err != nil {
			return err
		}
		count := int(header&0x7F) + 1
		if header&0x80 != 0 {
			pixel := make([]byte, bpp)
			if err := d.buf.ReadBytes(pixel); err != nil {
				return err
			}
			for i := 0; i < count && filled < len(dst); i++ {
				copy(dst[filled:filled+bpp], pixel)
				filled += bpp
			}
		} else {
			for i := 0; i < count && filled < len(dst); i++ {
				pixel := make([]byte, bpp)
				if err := d.buf.ReadBytes(pixel); err != nil {
					return err
				}
				copy(dst[filled:filled+bpp], pixel)
				filled += bpp
			}
		}
	}
	return nil
}
