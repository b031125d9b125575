package gid

// TIFF header recognition only; body decoding is out of scope per
// spec.md section 1's non-goals (deferred). Grounded on
// other_examples/mdouchement-tiff__decoder.go and __const.go for the
// header shape. Per spec.md section 9's redesign note, the magic-42 value
// following the endianness marker is verified rather than trusted blindly.
func parseTIFFHeader(d *Descriptor, first byte) error {
	d.format = FormatTIFF

	littleEndian := first == 'I'
	d.littleEndian = littleEndian

	endian := BigEndian
	if littleEndian {
		endian = LittleEndian
	}
	magic, err := d.buf.ReadUint16(endian)
	if err != nil {
		return err
	}
	if magic != 42 {
		return newErr(KindDataError, "TIFF magic number mismatch")
	}

	d.detailedFormat = "TIFF"
	return newErr(KindUnsupportedFormat, "TIFF body decoding is not implemented")
}
