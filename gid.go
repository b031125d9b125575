// Package gid implements a Generic Image Decoder: a streaming library that
// identifies a compressed image from a raw byte source and reproduces its
// pixel grid to a caller-supplied sink, for BMP, GIF, JPEG, PNG, PNM, QOI
// and TGA (with header-only recognition of FITS and TIFF).
//
// Usage mirrors spec.md section 2's control flow:
//
//	d, err := gid.LoadHeader(r, gid.Options{})
//	// inspect gid.PixelWidth(d), gid.PixelHeight(d), ... to prepare a sink
//	for {
//		delay, err := gid.LoadContents(d, sink, gid.Fast)
//		if delay == 0 {
//			break
//		}
//	}
package gid

import "io"

// LoadHeader reads the signature and format-specific header from source,
// returning a Descriptor with Width, Height, Format and BitsPerPixel
// frozen for its lifetime. opts.TryTGA enables the signature-less TGA
// fallback described in spec.md section 4.4.
func LoadHeader(source io.Reader, opts Options) (d *Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindInternal, "panic during header parse")
			d = nil
		}
	}()

	d = newDescriptor(source, opts)
	if err := dispatchHeader(d); err != nil {
		return nil, err
	}
	if d.width <= 0 || d.height <= 0 {
		return nil, newErr(KindInternal, "decoder produced non-positive dimensions")
	}
	return d, nil
}

// LoadContents decodes the current frame's body into sink, returning the
// number of seconds until the next frame (0 for "no more frames"/
// non-animated formats). Callers re-invoke on the same Descriptor for
// animated formats (currently: GIF).
func LoadContents(d *Descriptor, sink Sink, mode Mode) (nextFrameDelay float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newErr(KindInternal, "panic during body decode")
			nextFrameDelay = 0
		}
	}()

	if d == nil {
		return 0, newErr(KindInternal, "nil descriptor")
	}
	if err := validatePrimaryWidth(sink.PrimaryWidth()); err != nil {
		return 0, err
	}

	switch d.format {
	case FormatBMP:
		return 0, decodeBMPBody(d, sink)
	case FormatGIF:
		return decodeGIFBody(d, sink, mode)
	case FormatJPEG:
		return 0, decodeJPEGBody(d, sink)
	case FormatPNG:
		return 0, decodePNGBody(d, sink, mode)
	case FormatPNM:
		return 0, decodePNMBody(d, sink)
	case FormatQOI:
		return 0, decodeQOIBody(d, sink)
	case FormatTGA:
		return 0, decodeTGABody(d, sink)
	case FormatFITS, FormatTIFF:
		return 0, newErr(KindUnsupportedFormat, d.format.String()+" body decoding is not implemented")
	default:
		return 0, newErr(KindInternal, "descriptor has no recognized format")
	}
}
