package gid

import "bytes"

// dispatchHeader implements spec.md section 4.4's signature table.
// Grounded on other_examples/golang-image__reader.go's sniff-then-dispatch
// shape and other_examples/fumiama-imgsz__bmp.go / __tiffconsts.go for
// magic byte layouts. Sub-matches beyond the first byte are speculative:
// on mismatch the bufReader is rewound so the TGA fallback (or the final
// unknown_image_format) sees the stream exactly as it stood after the one
// byte spec.md says is "already consumed by signature detection".
func dispatchHeader(d *Descriptor) error {
	first, err := d.buf.ReadByte()
	if err != nil {
		return err
	}
	d.firstByte = first

	switch first {
	case 'B':
		if matchBytes(d, []byte{'M'}) {
			return parseBMPHeader(d)
		}
	case 'S':
		if matchBytes(d, []byte("IMPLE")) {
			return parseFITSHeader(d)
		}
	case 'G':
		if matchBytes(d, []byte("IF87a")) || matchBytes(d, []byte("IF89a")) {
			return parseGIFHeader(d, first)
		}
	case 'I', 'M':
		if matchBytes(d, []byte{first}) {
			return parseTIFFHeader(d, first)
		}
	case 0xFF:
		if matchBytes(d, []byte{0xD8}) {
			return parseJPEGHeader(d)
		}
	case 0x89:
		if matchBytes(d, []byte("PNG\r\n\x1a\n")) {
			return parsePNGHeader(d)
		}
	case 'P':
		if ok, b2 := matchRange(d, '1', '6'); ok {
			return parsePNMHeader(d, b2)
		}
	case 'q':
		if matchBytes(d, []byte("oif")) {
			return parseQOIHeader(d)
		}
	}

	if d.opts.TryTGA {
		return parseTGAHeader(d)
	}
	return newErr(KindUnknownFormat, "signature matched no known format")
}

// matchBytes speculatively reads len(want) bytes; on mismatch or read
// error it rewinds the buffer so the bytes can be reread by a later probe.
func matchBytes(d *Descriptor, want []byte) bool {
	m := d.buf.mark()
	got := make([]byte, len(want))
	if err := d.buf.ReadBytes(got); err != nil {
		d.buf.resetTo(m)
		return false
	}
	if !bytes.Equal(got, want) {
		d.buf.resetTo(m)
		return false
	}
	return true
}

// matchRange speculatively reads one byte and reports whether it falls in
// [lo, hi], rewinding on mismatch.
func matchRange(d *Descriptor, lo, hi byte) (bool, byte) {
	m := d.buf.mark()
	b, err := d.buf.ReadByte()
	if err != nil {
		d.buf.resetTo(m)
		return false, 0
	}
	if b < lo || b > hi {
		d.buf.resetTo(m)
		return false, 0
	}
	return true, b
}
