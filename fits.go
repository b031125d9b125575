package gid

// FITS header recognition only; body decoding is out of scope per
// spec.md section 1's non-goals. Grounded on spec.md's "SIMPLE" magic
// directly — no FITS example exists in the corpus.

func parseFITSHeader(d *Descriptor) error {
	d.format = FormatFITS
	d.detailedFormat = "FITS"
	return newErr(KindUnsupportedFormat, "FITS body decoding is not implemented")
}
