package gid

// GIF header and body (LZW + Adam7-style 4-pass interlacing), per spec.md
// section 4.6. Grounded on other_examples/xanthousphoenix-go-gif__reader.go
// (a fork of stdlib image/gif: block reader, extension sub-block
// iteration, disposal-method constants).

const (
	gifSExtension       = 0x21
	gifSImageDescriptor = 0x2C
	gifSTrailer         = 0x3B

	gifEGraphicControl = 0xF9
	gifEComment        = 0xFE
	gifEPlainText       = 0x01
	gifEApplication     = 0xFF
)

type gifFrame struct {
	x, y, w, h int
	interlace  bool
	palette    []RGB
	transparentIndex int
	hasTransparent   bool
	disposal         int
	delayCentis      int
	data             []byte // raw LZW sub-block payload, concatenated
	initialCodeSize  int
}

// GIF disposal methods, per the Graphic Control Extension's packed byte.
const (
	gifDisposeNone       = 0
	gifDisposeDoNot      = 1
	gifDisposeBackground = 2
	gifDisposePrevious   = 3
)

func parseGIFHeader(d *Descriptor, first byte) error {
	d.format = FormatGIF
	d.gif = &gifState{loopCount: -1, prevDisposal: gifDisposeNone}

	var hdr [7]byte // width(2) height(2) packed(1) bg(1) aspect(1)
	if err := d.buf.ReadBytes(hdr[:]); err != nil {
		return err
	}
	width := int(hdr[0]) | int(hdr[1])<<8
	height := int(hdr[2]) | int(hdr[3])<<8
	packed := hdr[4]
	d.gif.backgroundIndex = int(hdr[5])

	if width <= 0 || height <= 0 {
		return newErr(KindDataError, "invalid GIF dimensions")
	}
	d.width = width
	d.height = height
	d.gif.canvas = make([]gifCanvasPixel, width*height)
	d.gif.canvasW = width

	gctFlag := packed&0x80 != 0
	gctBits := int(packed & 0x07)
	d.subformatID = gctBits + 1

	if gctFlag {
		n := 1 << uint(gctBits+1)
		data := make([]byte, n*3)
		if err := d.buf.ReadBytes(data); err != nil {
			return err
		}
		pal, err := loadPaletteRGB(data, n)
		if err != nil {
			return err
		}
		d.palette = pal
		d.bitsPerPixel = gctBits + 1
	} else {
		d.bitsPerPixel = 8
	}

	d.detailedFormat = "GIF"
	if first == 'G' {
		d.detailedFormat = "GIF87a/89a"
	}
	return nil
}

// readSubBlocks concatenates a GIF sub-block sequence (len byte, then that
// many bytes, zero-length ends the sequence) into one buffer.
func readSubBlocks(d *Descriptor) ([]byte, error) {
	var out []byte
	for {
		n, err := d.buf.ReadByte()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out, nil
		}
		chunk := make([]byte, n)
		if err := d.buf.ReadBytes(chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}

func skipSubBlocks(d *Descriptor) error {
	_, err := readSubBlocks(d)
	return err
}

// decodeGIFBody reads exactly one frame's worth of GIF stream (skipping
// any leading extensions that are not a Graphic Control immediately
// preceding an Image Descriptor) and decodes it into sink, returning the
// delay to the next frame.
func decodeGIFBody(d *Descriptor, sink Sink, mode Mode) (float64, error) {
	var pendingDelay int
	var pendingTransparent int
	var hasTransparent bool
	var pendingDisposal int

	for {
		tag, err := d.buf.ReadByte()
		if err != nil {
			return 0, err
		}
		switch tag {
		case gifSTrailer:
			return 0, nil
		case gifSExtension:
			ext, err := d.buf.ReadByte()
			if err != nil {
				return 0, err
			}
			switch ext {
			case gifEGraphicControl:
				data, err := readSubBlocks(d)
				if err != nil {
					return 0, err
				}
				if len(data) >= 4 {
					flags := data[0]
					pendingDelay = int(data[1]) | int(data[2])<<8
					hasTransparent = flags&0x01 != 0
					pendingTransparent = int(data[3])
					pendingDisposal = int(flags>>2) & 0x07
				}
			case gifEApplication:
				if err := handleGIFApplication(d); err != nil {
					return 0, err
				}
			default:
				if err := skipSubBlocks(d); err != nil {
					return 0, err
				}
			}
		case gifSImageDescriptor:
			frame, err := parseGIFImageDescriptor(d)
			if err != nil {
				return 0, err
			}
			frame.delayCentis = pendingDelay
			frame.hasTransparent = hasTransparent
			frame.transparentIndex = pendingTransparent
			frame.disposal = pendingDisposal
			d.transparency = hasTransparent

			if err := decodeGIFFrame(d, frame, sink, mode); err != nil {
				return 0, err
			}
			return float64(frame.delayCentis) / 100.0, nil
		default:
			return 0, newErr(KindDataError, "unrecognized GIF block introducer")
		}
	}
}

// handleGIFApplication reads the 11-byte application identifier and, for
// NETSCAPE2.0, the loop-count sub-block, per SPEC_FULL.md's supplemented
// GIF looping feature.
func handleGIFApplication(d *Descriptor) error {
	data, err := readSubBlocks(d)
	if err != nil {
		return err
	}
	// First sub-block (11 bytes: 8-byte identifier + 3-byte auth code) was
	// already folded into data by readSubBlocks; NETSCAPE2.0 then has a
	// second sub-block "\x01 lo hi".
	if len(data) >= 11 && string(data[0:11]) == "NETSCAPE2.0" && len(data) >= 14 {
		d.gif.loopCount = int(data[12]) | int(data[13])<<8
	}
	return nil
}

func parseGIFImageDescriptor(d *Descriptor) (*gifFrame, error) {
	var hdr [9]byte
	if err := d.buf.ReadBytes(hdr[:]); err != nil {
		return nil, err
	}
	f := &gifFrame{
		x: int(hdr[0]) | int(hdr[1])<<8,
		y: int(hdr[2]) | int(hdr[3])<<8,
		w: int(hdr[4]) | int(hdr[5])<<8,
		h: int(hdr[6]) | int(hdr[7])<<8,
	}
	packed := hdr[8]
	lctFlag := packed&0x80 != 0
	f.interlace = packed&0x40 != 0
	lctBits := int(packed & 0x07)

	if lctFlag {
		n := 1 << uint(lctBits+1)
		data := make([]byte, n*3)
		if err := d.buf.ReadBytes(data); err != nil {
			return nil, err
		}
		pal, err := loadPaletteRGB(data, n)
		if err != nil {
			return nil, err
		}
		f.palette = pal
	} else {
		f.palette = d.palette
	}

	codeSize, err := d.buf.ReadByte()
	if err != nil {
		return nil, err
	}
	f.initialCodeSize = int(codeSize)

	data, err := readSubBlocks(d)
	if err != nil {
		return nil, err
	}
	f.data = data
	return f, nil
}

// gifInterlacePass describes one Adam7-for-GIF pass: start offset and
// stride within the frame's rows.
type gifInterlacePass struct{ start, stride int }

var gifInterlacePasses = [4]gifInterlacePass{
	{0, 8}, {4, 8}, {2, 4}, {1, 2},
}

// applyPendingGIFDisposal resolves the previous frame's disposal method
// against the persisted canvas before the next frame is drawn: "restore to
// background" clears its rect to transparent, "restore to previous" puts
// back whatever the canvas held before that frame was drawn. "do not
// dispose" (and the unspecified method) leave the canvas untouched, since
// the next frame is meant to draw on top of it.
func applyPendingGIFDisposal(d *Descriptor) {
	g := d.gif
	r := g.prevRect
	switch g.prevDisposal {
	case gifDisposeBackground:
		for y := r.y; y < r.y+r.h; y++ {
			for x := r.x; x < r.x+r.w; x++ {
				g.canvas[y*g.canvasW+x] = gifCanvasPixel{}
			}
		}
	case gifDisposePrevious:
		if len(g.savedUnder) == r.w*r.h {
			i := 0
			for y := r.y; y < r.y+r.h; y++ {
				for x := r.x; x < r.x+r.w; x++ {
					g.canvas[y*g.canvasW+x] = g.savedUnder[i]
					i++
				}
			}
		}
	}
}

func decodeGIFFrame(d *Descriptor, f *gifFrame, sink Sink, mode Mode) error {
	if len(f.palette) == 0 {
		return newErr(KindDataError, "GIF frame has no palette")
	}

	applyPendingGIFDisposal(d)

	g := d.gif
	rect := gifRect{f.x, f.y, f.w, f.h}
	if f.disposal == gifDisposePrevious {
		g.savedUnder = make([]gifCanvasPixel, f.w*f.h)
		i := 0
		for y := rect.y; y < rect.y+rect.h; y++ {
			for x := rect.x; x < rect.x+rect.w; x++ {
				g.savedUnder[i] = g.canvas[y*g.canvasW+x]
				i++
			}
		}
	} else {
		g.savedUnder = nil
	}

	lz := newLZWDecoder(f.data, f.initialCodeSize)
	pixels, err := lz.Decode()
	if err != nil {
		return err
	}
	if len(pixels) < f.w*f.h {
		return newErr(KindDataError, "truncated GIF LZW data")
	}

	emitRow := func(rowPixels []byte, y int) error {
		sink.SetXY(f.x, y)
		for x := 0; x < f.w; x++ {
			idx := int(rowPixels[x])
			rgb, err := paletteIndex(f.palette, idx)
			if err != nil {
				return err
			}
			canvasIdx := y*g.canvasW + f.x + x
			var px gifCanvasPixel
			if f.hasTransparent && idx == f.transparentIndex {
				// Show whatever the canvas already held at this position
				// (a prior frame's pixel, or nothing if none was ever drawn).
				px = g.canvas[canvasIdx]
			} else {
				px = gifCanvasPixel{r: rgb.R, g: rgb.G, b: rgb.B, a: 255}
			}
			g.canvas[canvasIdx] = px
			putPixel8(sink, px.r, px.g, px.b, px.a)
		}
		return nil
	}

	defer func() {
		g.prevDisposal = f.disposal
		g.prevRect = rect
	}()

	if !f.interlace {
		for y := 0; y < f.h; y++ {
			if err := emitRow(pixels[y*f.w:(y+1)*f.w], f.y+y); err != nil {
				return err
			}
		}
		sink.Feedback(100)
		return nil
	}

	srcRow := 0
	for passIdx, pass := range gifInterlacePasses {
		for y := pass.start; y < f.h; y += pass.stride {
			row := pixels[srcRow*f.w : (srcRow+1)*f.w]
			srcRow++
			if err := emitRow(row, f.y+y); err != nil {
				return err
			}
			if mode == Nice {
				// On the last pass every row between two of its rows was
				// already drawn by an earlier pass, so nothing is filled.
				nextStart := y + 1
				if passIdx+1 < len(gifInterlacePasses) {
					nextStart = y + gifInterlacePasses[passIdx+1].stride
				}
				limit := y + pass.stride
				if nextStart < limit {
					limit = nextStart
				}
				if f.h < limit {
					limit = f.h
				}
				for fillY := y + 1; fillY < limit; fillY++ {
					if err := emitRow(row, f.y+fillY); err != nil {
						return err
					}
				}
			}
		}
	}
	sink.Feedback(100)
	return nil
}
