package gid

// Two bit-reading disciplines coexist per spec.md section 4.2: MSB-first
// for JPEG entropy data, and LSB-first for GIF/LZW. PNG's DEFLATE stream is
// inflated by zlib and does not go through either reader. Grounded on the
// teacher's bitReader.readBit/readBitFast (codec.go) for the register
// discipline, and gen2brain-jpegn/bitstream.go's showBits fill loop for
// JPEG's 0xFF 0x00 byte-stuffing rule.

// entropySource supplies bytes from a JPEG entropy-coded segment, handling
// the byte-stuffing rule: a literal 0xFF is followed by a discarded 0x00,
// while 0xFF followed by anything else is a marker and ends the segment.
type entropySource struct {
	buf        *bufReader
	markerHit  bool
	markerByte byte
}

func newEntropySource(b *bufReader) *entropySource {
	return &entropySource{buf: b}
}

// next returns the next de-stuffed data byte. ok is false once a marker
// has been encountered; the marker's second byte is retained in
// markerByte for the caller (the JPEG scan loop) to dispatch on.
func (s *entropySource) next() (b byte, ok bool, err error) {
	if s.markerHit {
		return 0, false, nil
	}
	v, err := s.buf.ReadByte()
	if err != nil {
		return 0, false, err
	}
	if v != 0xFF {
		return v, true, nil
	}
	v2, err := s.buf.ReadByte()
	if err != nil {
		return 0, false, err
	}
	if v2 == 0x00 {
		return 0xFF, true, nil
	}
	// Marker encountered; rewind logically by remembering it and signal
	// end of entropy-coded segment.
	s.markerHit = true
	s.markerByte = v2
	return 0, false, nil
}

// msbBitReader accumulates entropy-segment bytes MSB-first, as JPEG
// Huffman/VLC decoding requires.
type msbBitReader struct {
	src     *entropySource
	bitBuf  uint32
	nBits   uint
	atEnd   bool
}

func newMSBBitReader(src *entropySource) *msbBitReader {
	return &msbBitReader{src: src}
}

func (r *msbBitReader) fill() error {
	for r.nBits <= 24 {
		b, ok, err := r.src.next()
		if err != nil {
			return err
		}
		if !ok {
			r.atEnd = true
			// Pad with zero bits; JPEG scans may legitimately run out of
			// entropy data exactly at a marker boundary.
			b = 0
		}
		r.bitBuf |= uint32(b) << (24 - r.nBits)
		r.nBits += 8
	}
	return nil
}

// ReadBits reads n (0..16) bits MSB-first.
func (r *msbBitReader) ReadBits(n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	if r.nBits < uint(n) {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	v := r.bitBuf >> (32 - uint(n))
	r.bitBuf <<= uint(n)
	r.nBits -= uint(n)
	return int(v), nil
}

// PeekBits returns n bits without consuming them; used for Huffman table
// lookups that decide the code length after the fact.
func (r *msbBitReader) PeekBits(n int) (int, error) {
	if r.nBits < uint(n) {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	return int(r.bitBuf >> (32 - uint(n))), nil
}

func (r *msbBitReader) Skip(n int) {
	r.bitBuf <<= uint(n)
	r.nBits -= uint(n)
}

// AlignByte empties the bit register, dropping the partial byte together
// with any whole bytes already looked ahead. Nothing calls it:
// consumeRestartMarker starts a fresh reader after each RSTn marker.
func (r *msbBitReader) AlignByte() {
	r.bitBuf = 0
	r.nBits = 0
}

// lsbReader accumulates bytes LSB-first over an in-memory buffer, as GIF's
// LZW coder requires.
type lsbReader struct {
	data  []byte
	pos   int
	bitBuf uint32
	nBits  uint
}

func newLSBReader(data []byte) *lsbReader {
	return &lsbReader{data: data}
}

// ReadBits reads n (0..16) bits LSB-first, returning error_in_image_data on
// underrun.
func (r *lsbReader) ReadBits(n int) (int, error) {
	for r.nBits < uint(n) {
		if r.pos >= len(r.data) {
			return 0, newErr(KindDataError, "LZW bit stream underrun")
		}
		r.bitBuf |= uint32(r.data[r.pos]) << r.nBits
		r.pos++
		r.nBits += 8
	}
	v := r.bitBuf & ((1 << uint(n)) - 1)
	r.bitBuf >>= uint(n)
	r.nBits -= uint(n)
	return int(v), nil
}
