package gid

// PNG's 5 scanline filter types, per spec.md section 4.8. Grounded on
// other_examples/golang-image__png_reader.go's unfilter loop (Paeth
// predictor arithmetic in particular).

const (
	pngFilterNone = 0
	pngFilterSub  = 1
	pngFilterUp   = 2
	pngFilterAvg  = 3
	pngFilterPaeth = 4
)

func paethPredictor(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// unfilterRow reverses one scanline's filter in place. bpp is the number
// of bytes per complete pixel (rounded up to at least 1 for sub-byte
// depths), used for the "left" reference distance.
func unfilterRow(filter byte, cur, prev []byte, bpp int) error {
	switch filter {
	case pngFilterNone:
	case pngFilterSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case pngFilterUp:
		for i := 0; i < len(cur); i++ {
			cur[i] += prev[i]
		}
	case pngFilterAvg:
		for i := 0; i < len(cur); i++ {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			cur[i] += byte((left + int(prev[i])) / 2)
		}
	case pngFilterPaeth:
		for i := 0; i < len(cur); i++ {
			var left, upLeft int
			if i >= bpp {
				left = int(cur[i-bpp])
				upLeft = int(prev[i-bpp])
			}
			cur[i] += byte(paethPredictor(left, int(prev[i]), upLeft))
		}
	default:
		return newErr(KindDataError, "unrecognized PNG filter type")
	}
	return nil
}
