package gid

import "hash/crc32"

// PNG chunk framing: LENGTH(4) TYPE(4) DATA(length) CRC(4), per spec.md
// section 4.8. Grounded on other_examples/golang-image__png_reader.go's
// chunk dispatch loop, restructured around this package's bufReader.

type pngChunk struct {
	kind string
	data []byte
}

func readPNGChunk(d *Descriptor) (pngChunk, error) {
	length, err := d.buf.ReadUint32(BigEndian)
	if err != nil {
		return pngChunk{}, err
	}
	var kindBytes [4]byte
	if err := d.buf.ReadBytes(kindBytes[:]); err != nil {
		return pngChunk{}, err
	}
	data := make([]byte, length)
	if err := d.buf.ReadBytes(data); err != nil {
		return pngChunk{}, err
	}
	wantCRC, err := d.buf.ReadUint32(BigEndian)
	if err != nil {
		return pngChunk{}, err
	}
	crc := crc32.NewIEEE()
	crc.Write(kindBytes[:])
	crc.Write(data)
	if crc.Sum32() != wantCRC {
		return pngChunk{}, newErr(KindDataError, "PNG chunk CRC mismatch")
	}
	return pngChunk{kind: string(kindBytes[:]), data: data}, nil
}
