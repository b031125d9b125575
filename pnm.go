package gid

// PNM header and body, per spec.md section 4.9. No direct corpus example;
// grounded directly on spec.md, written in the teacher's low-ceremony
// integer-token header-reader style (utils.go ReadHeader).

type pnmKind int

const (
	pnmBitmapASCII pnmKind = iota + 1 // P1
	pnmGraymapASCII
	pnmPixmapASCII
	pnmBitmapBinary // P4
	pnmGraymapBinary
	pnmPixmapBinary
)

type pnmState struct {
	kind   pnmKind
	maxval int
}

func parsePNMHeader(d *Descriptor, variant byte) error {
	d.format = FormatPNM

	kind := pnmKind(variant - '0')
	if kind < pnmBitmapASCII || kind > pnmPixmapBinary {
		return newErr(KindDataError, "unrecognized PNM variant")
	}

	width, err := readPNMToken(d)
	if err != nil {
		return err
	}
	height, err := readPNMToken(d)
	if err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return newErr(KindDataError, "invalid PNM dimensions")
	}

	maxval := 1
	if kind != pnmBitmapASCII && kind != pnmBitmapBinary {
		maxval, err = readPNMToken(d)
		if err != nil {
			return err
		}
		if maxval < 1 || maxval > 65535 {
			return newErr(KindDataError, "PNM maxval out of range")
		}
	}

	// For binary variants (P4-P6), exactly one whitespace byte separates
	// the last header token from the pixel data; readPNMToken already
	// consumed it while skipping to find the token's end, so the cursor
	// sits right at the first data byte.

	d.width = width
	d.height = height
	d.greyscale = kind == pnmBitmapASCII || kind == pnmBitmapBinary ||
		kind == pnmGraymapASCII || kind == pnmGraymapBinary
	switch kind {
	case pnmBitmapASCII, pnmBitmapBinary:
		d.bitsPerPixel = 1
		d.detailedFormat = "PNM bitmap"
	case pnmGraymapASCII, pnmGraymapBinary:
		d.bitsPerPixel = bitsForMaxval(maxval)
		d.detailedFormat = "PNM graymap"
	case pnmPixmapASCII, pnmPixmapBinary:
		d.bitsPerPixel = bitsForMaxval(maxval) * 3
		d.detailedFormat = "PNM pixmap"
	}
	d.orientation = OrientUnchanged
	d.pnm = &pnmState{kind: kind, maxval: maxval}
	return nil
}

func bitsForMaxval(maxval int) int {
	if maxval > 255 {
		return 16
	}
	return 8
}

// pnmScaleSample rescales a raw sample in [0, maxval] (maxval is an
// arbitrary integer per spec.md section 4.9, not necessarily 2^n-1) to an
// 8-bit channel value by linear interpolation, per spec.md section 4.3's
// promotion contract. bitsForMaxval only picks the wire byte width (1 byte
// vs. big-endian 2 bytes); it is not itself the sample's value range.
func pnmScaleSample(v, maxval int) uint8 {
	if maxval < 1 {
		maxval = 1
	}
	scaled := v * 255 / maxval
	if scaled > 255 {
		scaled = 255
	}
	if scaled < 0 {
		scaled = 0
	}
	return uint8(scaled)
}

// readPNMToken skips PNM whitespace and '#'-to-newline comments, then
// reads one run of digits as an unsigned decimal integer.
func readPNMToken(d *Descriptor) (int, error) {
	for {
		b, err := d.buf.ReadByte()
		if err != nil {
			return 0, err
		}
		if isPNMSpace(b) {
			continue
		}
		if b == '#' {
			if err := skipPNMComment(d); err != nil {
				return 0, err
			}
			continue
		}
		if b < '0' || b > '9' {
			return 0, newErr(KindDataError, "malformed PNM header token")
		}
		v := int(b - '0')
		for {
			nb, err := d.buf.ReadByte()
			if err != nil {
				return 0, err
			}
			if nb < '0' || nb > '9' {
				if !isPNMSpace(nb) {
					return 0, newErr(KindDataError, "malformed PNM header token")
				}
				return v, nil
			}
			v = v*10 + int(nb-'0')
		}
	}
}

func skipPNMComment(d *Descriptor) error {
	for {
		b, err := d.buf.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func isPNMSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

func decodePNMBody(d *Descriptor, sink Sink) error {
	switch d.pnm.kind {
	case pnmBitmapASCII:
		return decodePNMBitmapASCII(d, sink)
	case pnmGraymapASCII:
		return decodePNMGraymapASCII(d, sink)
	case pnmPixmapASCII:
		return decodePNMPixmapASCII(d, sink)
	case pnmBitmapBinary:
		return decodePNMBitmapBinary(d, sink)
	case pnmGraymapBinary:
		return decodePNMSampleBinary(d, sink, 1)
	case pnmPixmapBinary:
		return decodePNMSampleBinary(d, sink, 3)
	}
	return newErr(KindInternal, "unreachable PNM kind")
}

func decodePNMBitmapASCII(d *Descriptor, sink Sink) error {
	for y := 0; y < d.height; y++ {
		sink.SetXY(0, y)
		for x := 0; x < d.width; x++ {
			v, err := readPNMBit(d)
			if err != nil {
				return err
			}
			// PNM bitmap convention: 1 = black, 0 = white.
			g := uint8(promote(uint32(1-v), 1, 8))
			putPixel8(sink, g, g, g, 255)
		}
		sink.Feedback((y + 1) * 100 / d.height)
	}
	return nil
}

func readPNMBit(d *Descriptor) (int, error) {
	for {
		b, err := d.buf.ReadByte()
		if err != nil {
			return 0, err
		}
		if isPNMSpace(b) {
			continue
		}
		if b == '0' || b == '1' {
			return int(b - '0'), nil
		}
		return 0, newErr(KindDataError, "malformed PNM bitmap sample")
	}
}

func decodePNMGraymapASCII(d *Descriptor, sink Sink) error {
	st := d.pnm
	for y := 0; y < d.height; y++ {
		sink.SetXY(0, y)
		for x := 0; x < d.width; x++ {
			v, err := readPNMToken(d)
			if err != nil {
				return err
			}
			g := pnmScaleSample(v, st.maxval)
			putPixel8(sink, g, g, g, 255)
		}
		sink.Feedback((y + 1) * 100 / d.height)
	}
	return nil
}

func decodePNMPixmapASCII(d *Descriptor, sink Sink) error {
	st := d.pnm
	for y := 0; y < d.height; y++ {
		sink.SetXY(0, y)
		for x := 0; x < d.width; x++ {
			r, err := readPNMToken(d)
			if err != nil {
				return err
			}
			g, err := readPNMToken(d)
			if err != nil {
				return err
			}
			b, err := readPNMToken(d)
			if err != nil {
				return err
			}
			putPixel8(sink, pnmScaleSample(r, st.maxval), pnmScaleSample(g, st.maxval), pnmScaleSample(b, st.maxval), 255)
		}
		sink.Feedback((y + 1) * 100 / d.height)
	}
	return nil
}

func decodePNMBitmapBinary(d *Descriptor, sink Sink) error {
	rowBytes := (d.width + 7) / 8
	row := make([]byte, rowBytes)
	for y := 0; y < d.height; y++ {
		if err := d.buf.ReadBytes(row); err != nil {
			return err
		}
		sink.SetXY(0, y)
		for x := 0; x < d.width; x++ {
			bit := (row[x/8] >> uint(7-x%8)) & 1
			// PNM bitmap convention: 1 = black, 0 = white.
			g := uint8(promote(uint32(1-bit), 1, 8))
			putPixel8(sink, g, g, g, 255)
		}
		sink.Feedback((y + 1) * 100 / d.height)
	}
	return nil
}

func decodePNMSampleBinary(d *Descriptor, sink Sink, channels int) error {
	st := d.pnm
	inBits := bitsForMaxval(st.maxval)
	bytesPerSample := 1
	if inBits == 16 {
		bytesPerSample = 2
	}
	row := make([]byte, d.width*channels*bytesPerSample)
	for y := 0; y < d.height; y++ {
		if err := d.buf.ReadBytes(row); err != nil {
			return err
		}
		sink.SetXY(0, y)
		for x := 0; x < d.width; x++ {
			samples := [3]uint8{}
			for c := 0; c < channels; c++ {
				off := (x*channels + c) * bytesPerSample
				var v int
				if bytesPerSample == 2 {
					v = int(row[off])<<8 | int(row[off+1])
				} else {
					v = int(row[off])
				}
				samples[c] = pnmScaleSample(v, st.maxval)
			}
			if channels == 1 {
				putPixel8(sink, samples[0], samples[0], samples[0], 255)
			} else {
				putPixel8(sink, samples[0], samples[1], samples[2], 255)
			}
		}
		sink.Feedback((y + 1) * 100 / d.height)
	}
	return nil
}
