package gid

// Scan (SOS) entropy decode, per spec.md section 4.7's baseline and
// progressive algorithms. Grounded on gen2brain-jpegn/scan.go's MCU loop
// shape and decoder.go's DC/AC Huffman decode, extended here to cover
// progressive successive approximation since gen2brain's decoder declines
// SOF2 entirely.

func readSOSHeader(d *Descriptor) (scanComps []*jpegComponent, ss, se, ah, al int, err error) {
	data, err := readSegment(d)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}
	if len(data) < 1 {
		return nil, 0, 0, 0, 0, newErr(KindDataError, "truncated SOS header")
	}
	n := int(data[0])
	if n < 1 || n > 4 || len(data) < 1+n*2+3 {
		return nil, 0, 0, 0, 0, newErr(KindDataError, "truncated SOS component list")
	}
	scanComps = make([]*jpegComponent, n)
	for i := 0; i < n; i++ {
		id := int(data[1+i*2])
		sel := data[1+i*2+1]
		var comp *jpegComponent
		for _, c := range d.jpeg.components {
			if c.id == id {
				comp = c
				break
			}
		}
		if comp == nil {
			return nil, 0, 0, 0, 0, newErr(KindDataError, "SOS references undefined component")
		}
		comp.dcSel = int(sel >> 4)
		comp.acSel = int(sel & 0x0F)
		scanComps[i] = comp
	}
	tail := data[1+n*2:]
	ss, se, ah, al = int(tail[0]), int(tail[1]), int(tail[2]>>4), int(tail[2]&0x0F)
	return
}

// decodeScan decodes one SOS entropy segment and returns the marker byte
// that terminates it. The entropy bit reader looks ahead up to four bytes
// (msbBitReader.fill), so it routinely consumes the following marker
// (an RSTn, or EOI on the last scan) straight out of the shared bufReader
// before decodeScan returns; the caller must dispatch on the returned
// marker instead of re-reading one, or it desyncs on every image whose
// last scan ends flush against EOI.
func decodeScan(d *Descriptor) (byte, error) {
	scanComps, ss, se, ah, al, err := readSOSHeader(d)
	if err != nil {
		return 0, err
	}
	for _, c := range scanComps {
		c.dcPred = 0
	}
	d.jpeg.eobrun = 0

	src := newEntropySource(d.buf)
	br := newMSBBitReader(src)

	interleaved := len(scanComps) > 1
	var blocks []struct{ c *jpegComponent; bx, by int }
	if interleaved {
		for my := 0; my < d.jpeg.mcusPerCol; my++ {
			for mx := 0; mx < d.jpeg.mcusPerLine; mx++ {
				for _, c := range scanComps {
					for v := 0; v < c.v; v++ {
						for h := 0; h < c.h; h++ {
							blocks = append(blocks, struct {
								c      *jpegComponent
								bx, by int
							}{c, mx*c.h + h, my*c.v + v})
						}
					}
				}
			}
		}
	} else {
		c := scanComps[0]
		compW := (d.width*c.h + d.jpeg.maxH - 1) / d.jpeg.maxH
		compH := (d.height*c.v + d.jpeg.maxV - 1) / d.jpeg.maxV
		blocksPerLine := (compW + 7) / 8
		blocksPerCol := (compH + 7) / 8
		for by := 0; by < blocksPerCol; by++ {
			for bx := 0; bx < blocksPerLine; bx++ {
				blocks = append(blocks, struct {
					c      *jpegComponent
					bx, by int
				}{c, bx, by})
			}
		}
	}

	restartCounter := d.jpeg.restart
	for i, blk := range blocks {
		base := (blk.by*blk.c.blocksPerLine + blk.bx) * 64
		coeff := blk.c.coeff[base : base+64]

		if err := decodeOneBlock(d, &br, blk.c, coeff, ss, se, ah, al, d.jpeg.progressive); err != nil {
			return 0, err
		}

		if d.jpeg.restart > 0 {
			restartCounter--
			if restartCounter == 0 && i != len(blocks)-1 {
				if err := consumeRestartMarker(d, &src, &br, scanComps); err != nil {
					return 0, err
				}
				restartCounter = d.jpeg.restart
			}
		}
	}

	// Force the lookahead far enough to reach the terminating marker, then
	// hand it back instead of leaving it stranded in src.
	if !src.markerHit {
		if _, err := br.PeekBits(8); err != nil {
			return 0, err
		}
	}
	if !src.markerHit {
		return 0, nil
	}
	return src.markerByte, nil
}

func decodeOneBlock(d *Descriptor, br **msbBitReader, c *jpegComponent, coeff []int32, ss, se, ah, al int, progressive bool) error {
	if !progressive {
		return decodeBaselineBlock(d, *br, c, coeff)
	}
	if ss == 0 {
		if ah == 0 {
			return decodeDCFirst(d, *br, c, coeff, al)
		}
		return decodeDCRefine(*br, coeff, al)
	}
	if ah == 0 {
		return decodeACFirst(d, *br, c, coeff, ss, se, al)
	}
	return decodeACRefine(d, *br, c, coeff, ss, se, al)
}

func decodeBaselineBlock(d *Descriptor, br *msbBitReader, c *jpegComponent, coeff []int32) error {
	dcTable := d.jpeg.huffDC[c.dcSel]
	acTable := d.jpeg.huffAC[c.acSel]
	if dcTable == nil || acTable == nil {
		return newErr(KindDataError, "JPEG scan references undefined Huffman table")
	}

	s, err := dcTable.decode(br)
	if err != nil {
		return err
	}
	diff, err := receiveExtend(br, s)
	if err != nil {
		return err
	}
	c.dcPred += diff
	coeff[0] = int32(c.dcPred)

	k := 1
	for k <= 63 {
		rs, err := acTable.decode(br)
		if err != nil {
			return err
		}
		r, sz := rs>>4, rs&0x0F
		if sz == 0 {
			if r == 15 {
				k += 16
				continue
			}
			break // EOB
		}
		k += r
		if k > 63 {
			return newErr(KindDataError, "JPEG AC run exceeds block")
		}
		val, err := receiveExtend(br, sz)
		if err != nil {
			return err
		}
		coeff[k] = int32(val)
		k++
	}
	return nil
}

func decodeDCFirst(d *Descriptor, br *msbBitReader, c *jpegComponent, coeff []int32, al int) error {
	dcTable := d.jpeg.huffDC[c.dcSel]
	if dcTable == nil {
		return newErr(KindDataError, "JPEG scan references undefined DC Huffman table")
	}
	s, err := dcTable.decode(br)
	if err != nil {
		return err
	}
	diff, err := receiveExtend(br, s)
	if err != nil {
		return err
	}
	c.dcPred += diff
	coeff[0] = int32(c.dcPred) << uint(al)
	return nil
}

func decodeDCRefine(br *msbBitReader, coeff []int32, al int) error {
	bit, err := br.ReadBits(1)
	if err != nil {
		return err
	}
	if bit != 0 {
		coeff[0] |= int32(1) << uint(al)
	}
	return nil
}

func decodeACFirst(d *Descriptor, br *msbBitReader, c *jpegComponent, coeff []int32, ss, se, al int) error {
	if d.jpeg.eobrun > 0 {
		d.jpeg.eobrun--
		return nil
	}
	acTable := d.jpeg.huffAC[c.acSel]
	if acTable == nil {
		return newErr(KindDataError, "JPEG scan references undefined AC Huffman table")
	}
	k := ss
	for k <= se {
		rs, err := acTable.decode(br)
		if err != nil {
			return err
		}
		r, sz := rs>>4, rs&0x0F
		if sz == 0 {
			if r < 15 {
				eobrun := (1 << uint(r)) - 1
				if r > 0 {
					extra, err := br.ReadBits(r)
					if err != nil {
						return err
					}
					eobrun += extra
				}
				d.jpeg.eobrun = eobrun
				return nil
			}
			k += 16
			continue
		}
		k += r
		if k > se {
			return newErr(KindDataError, "JPEG AC run exceeds spectral band")
		}
		val, err := receiveExtend(br, sz)
		if err != nil {
			return err
		}
		coeff[k] = int32(val) << uint(al)
		k++
	}
	return nil
}

func decodeACRefine(d *Descriptor, br *msbBitReader, c *jpegComponent, coeff []int32, ss, se, al int) error {
	acTable := d.jpeg.huffAC[c.acSel]
	if acTable == nil {
		return newErr(KindDataError, "JPEG scan references undefined AC Huffman table")
	}
	p1 := int32(1) << uint(al)
	m1 := -p1

	k := ss
	if d.jpeg.eobrun == 0 {
		for k <= se {
			rs, err := acTable.decode(br)
			if err != nil {
				return err
			}
			r, sz := int(rs>>4), rs&0x0F
			var value int32
			if sz == 0 {
				if r != 15 {
					eobrun := (1 << uint(r)) - 1
					if r > 0 {
						extra, err := br.ReadBits(r)
						if err != nil {
							return err
						}
						eobrun += extra
					}
					d.jpeg.eobrun = eobrun
					break
				}
			} else {
				bit, err := br.ReadBits(1)
				if err != nil {
					return err
				}
				if bit != 0 {
					value = p1
				} else {
					value = m1
				}
			}

			for k <= se {
				if coeff[k] != 0 {
					bit, err := br.ReadBits(1)
					if err != nil {
						return err
					}
					if bit != 0 && coeff[k]&p1 == 0 {
						if coeff[k] > 0 {
							coeff[k] += p1
						} else {
							coeff[k] += m1
						}
					}
				} else {
					if r == 0 {
						if value != 0 {
							coeff[k] = value
						}
						k++
						break
					}
					r--
				}
				k++
			}
		}
	}

	if d.jpeg.eobrun > 0 {
		for ; k <= se; k++ {
			if coeff[k] != 0 {
				bit, err := br.ReadBits(1)
				if err != nil {
					return err
				}
				if bit != 0 && coeff[k]&p1 == 0 {
					if coeff[k] > 0 {
						coeff[k] += p1
					} else {
						coeff[k] += m1
					}
				}
			}
		}
		d.jpeg.eobrun--
	}
	return nil
}

func consumeRestartMarker(d *Descriptor, src **entropySource, br **msbBitReader, comps []*jpegComponent) error {
	if _, err := (*br).PeekBits(8); err != nil {
		return err
	}
	s := *src
	if !s.markerHit {
		return newErr(KindDataError, "expected JPEG restart marker")
	}
	if s.markerByte < 0xD0 || s.markerByte > 0xD7 {
		return newErr(KindDataError, "expected JPEG RSTn marker")
	}
	ns := newEntropySource(d.buf)
	*src = ns
	*br = newMSBBitReader(ns)
	for _, c := range comps {
		c.dcPred = 0
	}
	d.jpeg.eobrun = 0
	return nil
}
