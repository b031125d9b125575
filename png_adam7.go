package gid

// Adam7 interlacing, per spec.md section 4.8's 7-pass schedule. Grounded
// on other_examples/golang-image__png_reader.go's interlace pass table.

type adam7Pass struct {
	xStart, yStart, xStride, yStride int
}

var adam7Passes = [7]adam7Pass{
	{0, 0, 8, 8},
	{4, 0, 8, 8},
	{0, 4, 4, 8},
	{2, 0, 4, 4},
	{0, 2, 2, 4},
	{1, 0, 2, 2},
	{0, 1, 1, 2},
}

func adam7PassDims(width, height int, p adam7Pass) (w, h int) {
	if width <= p.xStart {
		w = 0
	} else {
		w = (width - p.xStart + p.xStride - 1) / p.xStride
	}
	if height <= p.yStart {
		h = 0
	} else {
		h = (height - p.yStart + p.yStride - 1) / p.yStride
	}
	return
}
