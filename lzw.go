package gid

// GIF's variable-width LZW decoder, per spec.md section 4.6. Grounded on
// other_examples/pspoerri-geotiff2pmtiles__lzw.go for the dictionary
// growth rule and other_examples/xanthousphoenix-go-gif__reader.go (a fork
// of stdlib image/gif) for the sub-block framing this sits behind.

const lzwMaxBits = 12
const lzwMaxCode = 1 << lzwMaxBits

type lzwDecoder struct {
	br              *lsbReader
	initialCodeSize int
	codeSize        int
	clearCode       int
	eoiCode         int
	nextCode        int
	prefix          []int  // dict[code] -> prefix code, or -1 for a root byte
	suffix          []byte // dict[code] -> trailing byte
	prevCode        int    // -1 until the first code after a CLEAR
	prevString      []byte
	out             []byte
}

func newLZWDecoder(data []byte, initialCodeSize int) *lzwDecoder {
	d := &lzwDecoder{
		br:              newLSBReader(data),
		initialCodeSize: initialCodeSize,
		prefix:          make([]int, lzwMaxCode),
		suffix:          make([]byte, lzwMaxCode),
	}
	d.reset()
	return d
}

func (d *lzwDecoder) reset() {
	d.codeSize = d.initialCodeSize + 1
	d.clearCode = 1 << d.initialCodeSize
	d.eoiCode = d.clearCode + 1
	d.nextCode = d.eoiCode + 1
	for i := 0; i < d.clearCode; i++ {
		d.prefix[i] = -1
		d.suffix[i] = byte(i)
	}
	d.prevCode = -1
	d.prevString = nil
}

// stringFor walks the dictionary chain for code and returns its string in
// forward order.
func (d *lzwDecoder) stringFor(code int) []byte {
	var rev []byte
	for code >= 0 {
		rev = append(rev, d.suffix[code])
		code = d.prefix[code]
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Decode runs the decoder to completion (EOI or stream exhaustion) and
// returns the decompressed byte stream. A short sub-block stream is not
// itself an error here; the caller checks the decoded size against the
// expected pixel count.
func (d *lzwDecoder) Decode() ([]byte, error) {
	for {
		code, err := d.br.ReadBits(d.codeSize)
		if err != nil {
			return d.out, nil
		}

		if code == d.clearCode {
			d.reset()
			continue
		}
		if code == d.eoiCode {
			return d.out, nil
		}

		var entry []byte
		switch {
		case code < d.nextCode:
			entry = d.stringFor(code)
		case code == d.nextCode && d.prevCode >= 0:
			entry = append(append([]byte{}, d.prevString...), d.prevString[0])
		default:
			return nil, newErr(KindDataError, "invalid LZW code")
		}

		d.out = append(d.out, entry...)

		if d.prevCode >= 0 && d.nextCode < lzwMaxCode {
			d.prefix[d.nextCode] = d.prevCode
			d.suffix[d.nextCode] = entry[0]
			d.nextCode++
			if d.nextCode == (1<<uint(d.codeSize)) && d.codeSize < lzwMaxBits {
				d.codeSize++
			}
		}

		d.prevCode = code
		d.prevString = entry
	}
}
