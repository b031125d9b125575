package gid

// JPEG marker-driven header and body decode, per spec.md section 4.7.
// Grounded on gen2brain-jpegn/jpegn.go's marker dispatch loop (DQT/DHT/
// SOF/SOS/DRI/RST/EOI) and decoder.go's decodeDHT/decodeDQT shape.

func readMarker(d *Descriptor) (byte, error) {
	for {
		b, err := d.buf.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			continue // fill bytes before a marker are legal padding
		}
		m, err := d.buf.ReadByte()
		if err != nil {
			return 0, err
		}
		if m == 0x00 || m == 0xFF {
			continue // stuffed byte or marker padding, keep scanning
		}
		return m, nil
	}
}

func readSegmentLength(d *Descriptor) (int, error) {
	n, err := d.buf.ReadUint16(BigEndian)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, newErr(KindDataError, "malformed JPEG segment length")
	}
	return int(n) - 2, nil
}

func readSegment(d *Descriptor) ([]byte, error) {
	n, err := readSegmentLength(d)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.buf.ReadBytes(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// parseJPEGHeader reads markers up to and including SOF, populating
// Descriptor and Descriptor.jpeg. Huffman tables that follow SOF (common
// for progressive JPEGs, which redefine tables between scans) are left for
// decodeJPEGBody to consume.
func parseJPEGHeader(d *Descriptor) error {
	d.jpeg = &jpegState{}
	d.format = FormatJPEG

	for {
		m, err := readMarker(d)
		if err != nil {
			return err
		}
		switch {
		case m == 0xDB:
			if err := decodeDQT(d); err != nil {
				return err
			}
		case m == 0xC4:
			if err := decodeDHT(d); err != nil {
				return err
			}
		case m == 0xDD:
			if err := decodeDRI(d); err != nil {
				return err
			}
		case m == 0xC0 || m == 0xC2:
			d.jpeg.progressive = m == 0xC2
			d.jpegProgressive = d.jpeg.progressive
			return decodeSOF(d)
		case m == 0xC1 || (m >= 0xC3 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC):
			return newErr(KindUnsupportedSubformat, "arithmetic-coded, lossless, and hierarchical JPEG are not supported")
		case m == 0xD9:
			return newErr(KindDataError, "JPEG ended before SOF")
		case m >= 0xE0 && m <= 0xEF, m == 0xFE:
			if _, err := readSegment(d); err != nil {
				return err
			}
		default:
			if _, err := readSegment(d); err != nil {
				return err
			}
		}
	}
}

func decodeDQT(d *Descriptor) error {
	data, err := readSegment(d)
	if err != nil {
		return err
	}
	for len(data) > 0 {
		pq := data[0] >> 4
		tq := data[0] & 0x0F
		if tq > 3 {
			return newErr(KindDataError, "invalid quantization table selector")
		}
		data = data[1:]
		var tbl [64]int32
		if pq == 0 {
			if len(data) < 64 {
				return newErr(KindDataError, "truncated quantization table")
			}
			for i := 0; i < 64; i++ {
				tbl[i] = int32(data[i])
			}
			data = data[64:]
		} else {
			if len(data) < 128 {
				return newErr(KindDataError, "truncated 16-bit quantization table")
			}
			for i := 0; i < 64; i++ {
				tbl[i] = int32(data[i*2])<<8 | int32(data[i*2+1])
			}
			data = data[128:]
			d.jpeg.quantPrec16[tq] = true
		}
		cp := tbl
		d.jpeg.quant[tq] = &cp
	}
	return nil
}

func decodeDHT(d *Descriptor) error {
	data, err := readSegment(d)
	if err != nil {
		return err
	}
	for len(data) > 0 {
		if len(data) < 17 {
			return newErr(KindDataError, "truncated Huffman table header")
		}
		tc := data[0] >> 4 // 0=DC, 1=AC
		th := data[0] & 0x0F
		if th > 3 {
			return newErr(KindDataError, "invalid Huffman table selector")
		}
		var counts [16]int
		total := 0
		for i := 0; i < 16; i++ {
			counts[i] = int(data[1+i])
			total += counts[i]
		}
		data = data[17:]
		if len(data) < total {
			return newErr(KindDataError, "truncated Huffman value list")
		}
		values := data[:total]
		data = data[total:]

		tbl, err := buildHuffTable(counts, values)
		if err != nil {
			return err
		}
		if tc == 0 {
			d.jpeg.huffDC[th] = tbl
		} else {
			d.jpeg.huffAC[th] = tbl
		}
	}
	return nil
}

func decodeDRI(d *Descriptor) error {
	data, err := readSegment(d)
	if err != nil {
		return err
	}
	if len(data) < 2 {
		return newErr(KindDataError, "truncated restart interval segment")
	}
	d.jpeg.restart = int(data[0])<<8 | int(data[1])
	return nil
}

func decodeSOF(d *Descriptor) error {
	data, err := readSegment(d)
	if err != nil {
		return err
	}
	if len(data) < 6 {
		return newErr(KindDataError, "truncated SOF segment")
	}
	precision := data[0]
	if precision != 8 {
		return newErr(KindUnsupportedSubformat, "only 8-bit JPEG samples are supported")
	}
	height := int(data[1])<<8 | int(data[2])
	width := int(data[3])<<8 | int(data[4])
	nComp := int(data[5])
	if nComp != 1 && nComp != 3 && nComp != 4 {
		return newErr(KindUnsupportedSubformat, "unsupported JPEG component count")
	}
	if len(data) < 6+nComp*3 {
		return newErr(KindDataError, "truncated SOF component list")
	}

	d.width = width
	d.height = height

	comps := make([]*jpegComponent, nComp)
	maxH, maxV := 1, 1
	for i := 0; i < nComp; i++ {
		off := 6 + i*3
		c := &jpegComponent{
			id:       int(data[off]),
			h:        int(data[off+1] >> 4),
			v:        int(data[off+1] & 0x0F),
			quantSel: int(data[off+2]),
		}
		if c.h == 0 || c.v == 0 || c.h > 4 || c.v > 4 {
			return newErr(KindDataError, "invalid JPEG sampling factor")
		}
		if c.h > maxH {
			maxH = c.h
		}
		if c.v > maxV {
			maxV = c.v
		}
		comps[i] = c
	}
	d.jpeg.maxH, d.jpeg.maxV = maxH, maxV

	mcuW, mcuH := maxH*8, maxV*8
	mcusPerLine := (width + mcuW - 1) / mcuW
	mcusPerCol := (height + mcuH - 1) / mcuH
	d.jpeg.mcusPerLine, d.jpeg.mcusPerCol = mcusPerLine, mcusPerCol

	for _, c := range comps {
		c.blocksPerLine = mcusPerLine * c.h
		c.blocksPerCol = mcusPerCol * c.v
		c.coeff = make([]int32, c.blocksPerLine*c.blocksPerCol*64)
		c.sampleStride = c.blocksPerLine * 8
		c.samples = make([]byte, c.sampleStride*c.blocksPerCol*8)
	}
	d.jpeg.components = comps

	switch nComp {
	case 1:
		d.jpeg.colorSpace = jpegGrey
		d.greyscale = true
		d.bitsPerPixel = 8
	case 3:
		d.jpeg.colorSpace = jpegYCbCr
		d.bitsPerPixel = 24
	case 4:
		d.jpeg.colorSpace = jpegCMYK
		d.bitsPerPixel = 32
	}
	d.detailedFormat = "JPEG baseline"
	if d.jpeg.progressive {
		d.detailedFormat = "JPEG progressive"
	}
	d.logger.Debugf("jpeg: %dx%d components=%d progressive=%v", width, height, nComp, d.jpeg.progressive)
	return nil
}

// decodeJPEGBody resumes marker parsing right after SOF (possibly more
// DHT/DQT, then one or more SOS scans), decodes every scan's entropy data,
// and on EOI dequantizes + IDCTs every block, upsamples, converts to RGB,
// and pushes pixels to sink.
func decodeJPEGBody(d *Descriptor, sink Sink) error {
	// pending holds a marker byte decodeScan already pulled off the wire
	// while filling its bit-reader lookahead; 0 means "none", since no
	// marker code is ever 0x00.
	var pending byte
	for {
		var m byte
		if pending != 0 {
			m, pending = pending, 0
		} else {
			var err error
			m, err = readMarker(d)
			if err != nil {
				return err
			}
		}
		switch {
		case m == 0xDB:
			if err := decodeDQT(d); err != nil {
				return err
			}
		case m == 0xC4:
			if err := decodeDHT(d); err != nil {
				return err
			}
		case m == 0xDD:
			if err := decodeDRI(d); err != nil {
				return err
			}
		case m == 0xDA:
			marker, err := decodeScan(d)
			if err != nil {
				return err
			}
			pending = marker
		case m == 0xD9:
			return finalizeJPEG(d, sink)
		default:
			if _, err := readSegment(d); err != nil {
				return err
			}
		}
	}
}

func finalizeJPEG(d *Descriptor, sink Sink) error {
	for _, c := range d.jpeg.components {
		quant := d.jpeg.quant[c.quantSel]
		if quant == nil {
			return newErr(KindDataError, "JPEG component references undefined quantization table")
		}
		var blk [64]int32
		for by := 0; by < c.blocksPerCol; by++ {
			for bx := 0; bx < c.blocksPerLine; bx++ {
				base := (by*c.blocksPerLine + bx) * 64
				for zz := 0; zz < 64; zz++ {
					blk[zigzag[zz]] = c.coeff[base+zz] * quant[zz]
				}
				outOff := by*8*c.sampleStride + bx*8
				idctBlock(&blk, c.samples, outOff, c.sampleStride)
			}
		}
	}

	return emitJPEGPixels(d, sink)
}

// emitJPEGPixels upsamples every component to full resolution with
// nearest-neighbor replication (spec.md section 4.7), converts to RGB, and
// streams row-major pixels to sink.
func emitJPEGPixels(d *Descriptor, sink Sink) error {
	width, height := d.width, d.height
	comps := d.jpeg.components
	maxH, maxV := d.jpeg.maxH, d.jpeg.maxV

	sample := func(c *jpegComponent, x, y int) byte {
		sx := x * c.h / maxH
		sy := y * c.v / maxV
		if sx >= c.sampleStride {
			sx = c.sampleStride - 1
		}
		rowStride := c.sampleStride
		maxRow := c.blocksPerCol*8 - 1
		if sy > maxRow {
			sy = maxRow
		}
		return c.samples[sy*rowStride+sx]
	}

	for y := 0; y < height; y++ {
		sink.SetXY(0, y)
		for x := 0; x < width; x++ {
			var r, g, b, a uint8 = 0, 0, 0, 255
			switch d.jpeg.colorSpace {
			case jpegGrey:
				v := sample(comps[0], x, y)
				r, g, b = v, v, v
			case jpegYCbCr:
				yy := sample(comps[0], x, y)
				cb := sample(comps[1], x, y)
				cr := sample(comps[2], x, y)
				r, g, b = ycbcrToRGB(yy, cb, cr)
			case jpegCMYK:
				c0 := sample(comps[0], x, y)
				m0 := sample(comps[1], x, y)
				y0 := sample(comps[2], x, y)
				k0 := sample(comps[3], x, y)
				r, g, b = cmykToRGB(c0, m0, y0, k0)
			}
			putPixel8(sink, r, g, b, a)
		}
		sink.Feedback((y + 1) * 100 / height)
	}
	return nil
}
