package gid

// Huffman table construction, grounded on gen2brain-jpegn/decoder.go's
// decodeDHT: canonical-Huffman codes expanded into a 65,536-entry flat
// lookup (spec.md section 4.7 calls this table size "acceptable as-is").

type huffEntry struct {
	bits uint8
	val  uint8
}

type huffTable struct {
	entries [65536]huffEntry
}

// buildHuffTable expands bits[1..16] (count of codes of each length) and
// the associated value list into a flat lookup table indexed by the next
// 16 bits of the entropy stream.
func buildHuffTable(counts [16]int, values []byte) (*huffTable, error) {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total > 256 || total > len(values) {
		return nil, newErr(KindDataError, "malformed Huffman table")
	}

	t := &huffTable{}
	var code uint32
	vi := 0
	for length := 1; length <= 16; length++ {
		n := counts[length-1]
		for k := 0; k < n; k++ {
			val := values[vi]
			vi++
			shift := uint(16 - length)
			base := code << shift
			count := 1 << shift
			for j := 0; j < count; j++ {
				idx := base + uint32(j)
				t.entries[idx] = huffEntry{bits: uint8(length), val: val}
			}
			code++
		}
		code <<= 1
	}
	return t, nil
}

// decode consumes one Huffman code from r and returns its value.
func (t *huffTable) decode(r *msbBitReader) (int, error) {
	peek, err := r.PeekBits(16)
	if err != nil {
		return 0, err
	}
	e := t.entries[peek]
	if e.bits == 0 {
		return 0, newErr(KindDataError, "bad Huffman code")
	}
	r.Skip(int(e.bits))
	return int(e.val), nil
}

// receiveExtend reads s raw bits and sign-extends per spec.md section 4.7:
// value = r if r >= 2^(s-1) else r - 2^s + 1.
func receiveExtend(r *msbBitReader, s int) (int, error) {
	if s == 0 {
		return 0, nil
	}
	raw, err := r.ReadBits(s)
	if err != nil {
		return 0, err
	}
	vt := 1 << uint(s-1)
	if raw < vt {
		return raw - (1 << uint(s)) + 1, nil
	}
	return raw, nil
}

// zigzag is the standard JPEG 8x8 zig-zag scan order, used to place
// decoded AC/DC coefficients into natural (row-major) block order.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}
