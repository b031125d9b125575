package gid

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Format identifies the compressed image family a Descriptor was parsed
// from.
type Format int

const (
	FormatUnknown Format = iota
	FormatBMP
	FormatFITS
	FormatGIF
	FormatJPEG
	FormatPNG
	FormatPNM
	FormatQOI
	FormatTGA
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatBMP:
		return "BMP"
	case FormatFITS:
		return "FITS"
	case FormatGIF:
		return "GIF"
	case FormatJPEG:
		return "JPEG"
	case FormatPNG:
		return "PNG"
	case FormatPNM:
		return "PNM"
	case FormatQOI:
		return "QOI"
	case FormatTGA:
		return "TGA"
	case FormatTIFF:
		return "TIFF"
	default:
		return "unknown"
	}
}

// Orientation is the display rotation the body decoder must apply, beyond
// whatever scanline order the format stores natively.
type Orientation int

const (
	OrientUnchanged Orientation = iota
	OrientRot90
	OrientRot180
	OrientRot270
)

// Mode selects how LoadContents paints interlaced data: Fast emits each
// pixel only once at its final location. Nice differs only for interlaced
// GIF frames, where each decoded row is also copied down over the rows
// below it that no earlier pass has drawn, giving a progressive-refinement
// preview. For Adam7 PNG, Nice emits pixels exactly as Fast does (no
// enlarged pass pixels are painted) and adds a progress report after each
// pass; the other formats, progressive JPEG included, ignore the mode.
type Mode int

const (
	Fast Mode = iota
	Nice
)

// RGB is one palette entry.
type RGB struct {
	R, G, B uint8
}

// Options configures LoadHeader.
type Options struct {
	// TryTGA makes the header dispatcher fall back to a TGA body parse
	// when no other format's signature matches, since TGA has no magic
	// bytes of its own.
	TryTGA bool
	// Logger receives Debug-level decode tracing. Nil gets a discarding
	// logger, so the library is silent by default.
	Logger *logrus.Logger
}

// jpegState carries JPEG metadata collected before SOF/SOS are reached, and
// state that must survive across progressive scans.
type jpegState struct {
	quant       [4]*[64]int32
	quantPrec16 [4]bool
	huffDC      [4]*huffTable
	huffAC      [4]*huffTable
	components  []*jpegComponent
	restart     int
	maxH, maxV  int
	colorSpace  jpegColorSpace
	progressive bool
	mcusPerLine int
	mcusPerCol  int

	// scan-local state, valid only while decodeScan is running
	eobrun int
}

type jpegColorSpace int

const (
	jpegYCbCr jpegColorSpace = iota
	jpegGrey
	jpegCMYK
)

type jpegComponent struct {
	id       int
	h, v     int
	quantSel int
	dcSel    int
	acSel    int
	dcPred   int

	blocksPerLine int
	blocksPerCol  int
	coeff         []int32 // per-block zig-zag-order coefficients
	samples       []byte  // decoded pixel plane, blocksPerLine*8 wide
	sampleStride  int
}

// gifCanvasPixel is one composited logical-screen pixel, persisted across
// frames so disposal-method handling can reconstruct what the next frame's
// transparent pixels should show through to.
type gifCanvasPixel struct {
	r, g, b, a uint8
}

// gifRect is a frame's placement on the logical screen.
type gifRect struct{ x, y, w, h int }

// gifState carries per-descriptor animation state across repeated
// LoadContents calls on the same Descriptor.
type gifState struct {
	loopCount       int
	backgroundIndex int
	blockDone       bool

	canvas  []gifCanvasPixel // logical-screen composite, width*height
	canvasW int

	prevDisposal int     // disposal method of the most recently drawn frame
	prevRect     gifRect // that frame's placement
	savedUnder   []gifCanvasPixel // canvas contents under the current frame's rect, saved when its own disposal method is "restore to previous"
}

// Descriptor is the single stateful object threaded through header parsing
// and body decoding. Once LoadHeader succeeds, Width, Height, BitsPerPixel
// and the Format are frozen for the descriptor's lifetime.
type Descriptor struct {
	format         Format
	detailedFormat string
	subformatID    int

	width, height int
	bitsPerPixel  int

	rleEncoded    bool
	transparency  bool
	greyscale     bool
	interlaced    bool // PNG Adam7
	jpegProgressive bool
	topFirst      bool // TGA orientation
	littleEndian  bool // TIFF

	orientation Orientation

	palette []RGB

	jpeg *jpegState
	gif  *gifState
	bmp  *bmpState
	tga  *tgaState
	pnm  *pnmState
	qoi  *qoiState
	png  *pngState

	stream io.Reader
	buf    *bufReader

	firstByte byte

	nextFrame float64

	logger *logrus.Logger
	opts   Options
}

func newDescriptor(r io.Reader, opts Options) *Descriptor {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Descriptor{
		stream: r,
		buf:    newBufReader(r),
		logger: logger,
		opts:   opts,
	}
}

// Accessors mirror spec.md section 6's callable operations.

func PixelWidth(d *Descriptor) int               { return d.width }
func PixelHeight(d *Descriptor) int              { return d.height }
func GetFormat(d *Descriptor) Format             { return d.format }
func DetailedFormat(d *Descriptor) string        { return d.detailedFormat }
func Subformat(d *Descriptor) int                { return d.subformatID }
func BitsPerPixel(d *Descriptor) int             { return d.bitsPerPixel }
func IsRLE(d *Descriptor) bool                   { return d.rleEncoded }
func IsInterlaced(d *Descriptor) bool            { return d.interlaced || d.jpegProgressive }
func Greyscale(d *Descriptor) bool               { return d.greyscale }
func HasPalette(d *Descriptor) bool              { return len(d.palette) > 0 }
func ExpectTransparency(d *Descriptor) bool      { return d.transparency }
func DisplayOrientation(d *Descriptor) Orientation { return d.orientation }

// LoopCount exposes the GIF NETSCAPE2.0 extension's loop count (0 means
// loop forever; -1 means the extension was absent, i.e. play once).
func LoopCount(d *Descriptor) int {
	if d.gif == nil {
		return -1
	}
	return d.gif.loopCount
}
