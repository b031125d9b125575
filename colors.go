package gid

// Color conversion per spec.md section 4.3. Grounded on the teacher's
// rgbToYCbCr/yCbCrToRGB (codec1-2.go) for the fixed-point coefficient
// style, generalized to the JFIF integer constants spec.md gives, and on
// jsummers-gobmp's per-row palette bounds check for palette safety.

func clamp8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ycbcrToRGB converts one JFIF YCbCr sample to RGB using the coefficients
// spec.md section 4.3 specifies, scaled to fixed point for integer math.
func ycbcrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	yy := int32(y) << 16
	cbb := int32(cb) - 128
	crr := int32(cr) - 128

	r32 := (yy + 91881*crr + (1 << 15)) >> 16
	g32 := (yy - 22554*cbb - 46802*crr + (1 << 15)) >> 16
	b32 := (yy + 116130*cbb + (1 << 15)) >> 16

	return clamp8(r32), clamp8(g32), clamp8(b32)
}

// cmykToRGB implements spec.md's CMYK conversion. JPEG CMYK samples are
// typically stored inverted (Adobe convention); callers pass raw C,M,Y,K
// as read from the stream.
func cmykToRGB(c, m, y, k uint8) (r, g, b uint8) {
	r = uint8((uint32(255-c) * uint32(255-k)) / 255)
	g = uint8((uint32(255-m) * uint32(255-k)) / 255)
	b = uint8((uint32(255-y) * uint32(255-k)) / 255)
	return
}

// loadPaletteRGB reads n entries of 3 bytes each (R,G,B order), as PNG's
// PLTE chunk stores them.
func loadPaletteRGB(data []byte, n int) ([]RGB, error) {
	if len(data) < n*3 {
		return nil, newErr(KindDataError, "truncated palette")
	}
	pal := make([]RGB, n)
	for i := 0; i < n; i++ {
		pal[i] = RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return pal, nil
}

// loadPaletteBGRx reads n entries of 4 bytes each in BGRx order, as BMP's
// DIB palette stores them.
func loadPaletteBGRx(data []byte, n int) ([]RGB, error) {
	if len(data) < n*4 {
		return nil, newErr(KindDataError, "truncated palette")
	}
	pal := make([]RGB, n)
	for i := 0; i < n; i++ {
		pal[i] = RGB{R: data[i*4+2], G: data[i*4+1], B: data[i*4+0]}
	}
	return pal, nil
}

// paletteIndex validates a decoded index against spec.md section 8
// invariant 3 before it is ever used to look up a color.
func paletteIndex(pal []RGB, idx int) (RGB, error) {
	if idx < 0 || idx >= len(pal) {
		return RGB{}, newErr(KindDataError, "palette index out of range")
	}
	return pal[idx], nil
}
