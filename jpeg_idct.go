package gid

// Separable 8-point AAN inverse DCT, grounded on
// gen2brain-jpegn/idct_noasm.go's rowIdct/colIdct (fixed-point AAN
// butterfly, scaled by 2^11). Operates on a natural-order (not zig-zag)
// 64-entry int32 block in place, then emits clamped 8-bit samples with the
// +128 level shift spec.md section 4.7 specifies.
const (
	idctW1 = 2841
	idctW2 = 2676
	idctW3 = 2408
	idctW5 = 1609
	idctW6 = 1108
	idctW7 = 565
)

func idctClamp(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func idctRow(blk *[64]int32, off int) {
	b := blk[off : off+8]
	x1 := b[4] << 11
	x2 := b[6]
	x3 := b[2]
	x4 := b[1]
	x5 := b[7]
	x6 := b[5]
	x7 := b[3]

	if (x1 | x2 | x3 | x4 | x5 | x6 | x7) == 0 {
		v := b[0] << 3
		for i := range b {
			b[i] = v
		}
		return
	}

	x0 := (b[0] << 11) + 128

	x8 := idctW7 * (x4 + x5)
	x4 = x8 + (idctW1-idctW7)*x4
	x5 = x8 - (idctW1+idctW7)*x5
	x8 = idctW3 * (x6 + x7)
	x6 = x8 - (idctW3-idctW5)*x6
	x7 = x8 - (idctW3+idctW5)*x7

	x8 = x0 + x1
	x0 -= x1
	x1 = idctW6 * (x3 + x2)
	x2 = x1 - (idctW2+idctW6)*x2
	x3 = x1 + (idctW2-idctW6)*x3

	x1 = x4 + x6
	x4 -= x6
	x6 = x5 + x7
	x5 -= x7

	x7 = x8 + x3
	x8 -= x3
	x3 = x0 + x2
	x0 -= x2

	x2 = (181*(x4+x5) + 128) >> 8
	x4 = (181*(x4-x5) + 128) >> 8

	b[0] = (x7 + x1) >> 8
	b[1] = (x3 + x2) >> 8
	b[2] = (x0 + x4) >> 8
	b[3] = (x8 + x6) >> 8
	b[4] = (x8 - x6) >> 8
	b[5] = (x0 - x4) >> 8
	b[6] = (x3 - x2) >> 8
	b[7] = (x7 - x1) >> 8
}

func idctCol(blk *[64]int32, off int, out []byte, outOff, stride int) {
	x1 := blk[off+8*4] << 8
	x2 := blk[off+8*6]
	x3 := blk[off+8*2]
	x4 := blk[off+8*1]
	x5 := blk[off+8*7]
	x6 := blk[off+8*5]
	x7 := blk[off+8*3]

	if (x1 | x2 | x3 | x4 | x5 | x6 | x7) == 0 {
		v := idctClamp(((blk[off] + 32) >> 6) + 128)
		p := outOff
		for i := 0; i < 8; i++ {
			out[p] = v
			p += stride
		}
		return
	}

	x0 := (blk[off] << 8) + 8192

	x8 := idctW7*(x4+x5) + 4
	x4 = (x8 + (idctW1-idctW7)*x4) >> 3
	x5 = (x8 - (idctW1+idctW7)*x5) >> 3
	x8 = idctW3*(x6+x7) + 4
	x6 = (x8 - (idctW3-idctW5)*x6) >> 3
	x7 = (x8 - (idctW3+idctW5)*x7) >> 3

	x8 = x0 + x1
	x0 -= x1
	x1 = idctW6*(x3+x2) + 4
	x2 = (x1 - (idctW2+idctW6)*x2) >> 3
	x3 = (x1 + (idctW2-idctW6)*x3) >> 3

	x1 = x4 + x6
	x4 -= x6
	x6 = x5 + x7
	x5 -= x7

	x7 = x8 + x3
	x8 -= x3
	x3 = x0 + x2
	x0 -= x2

	x2 = (181*(x4+x5) + 128) >> 8
	x4 = (181*(x4-x5) + 128) >> 8

	p := outOff
	out[p] = idctClamp(((x7 + x1) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x3 + x2) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x0 + x4) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x8 + x6) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x8 - x6) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x0 - x4) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x3 - x2) >> 14) + 128)
	p += stride
	out[p] = idctClamp(((x7 - x1) >> 14) + 128)
}

// idctBlock runs the full separable IDCT over a dequantized, natural-order
// 8x8 coefficient block, writing 8-bit samples into out at outOff with the
// given row stride.
func idctBlock(blk *[64]int32, out []byte, outOff, stride int) {
	for row := 0; row < 8; row++ {
		idctRow(blk, row*8)
	}
	for col := 0; col < 8; col++ {
		idctCol(blk, col, out, outOff+col, stride)
	}
}
