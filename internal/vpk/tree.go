package vpk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// entryRecordSize covers CRC, preload size, archive index, offset, length
// and terminator.
const entryRecordSize = 18

type treeReader struct {
	buf []byte
	pos int
}

func (r *treeReader) cstring() (string, error) {
	idx := bytes.IndexByte(r.buf[r.pos:], 0)
	if idx < 0 {
		return "", fmt.Errorf("%w: unterminated string at %d", ErrTruncated, r.pos)
	}
	s := string(r.buf[r.pos : r.pos+idx])
	r.pos += idx + 1
	return s, nil
}

func (r *treeReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at %d", ErrTruncated, n, r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (p *Package) parseTree(tree []byte) error {
	r := &treeReader{buf: tree}
	for {
		ext, err := r.cstring()
		if err != nil {
			return err
		}
		if ext == "" {
			return nil
		}
		ext = treeString(ext)
		for {
			dir, err := r.cstring()
			if err != nil {
				return err
			}
			if dir == "" {
				break
			}
			dir = treeString(dir)
			for {
				name, err := r.cstring()
				if err != nil {
					return err
				}
				if name == "" {
					break
				}
				entry, err := readEntry(r)
				if err != nil {
					return fmt.Errorf("entry %s/%s.%s: %w", dir, name, ext, err)
				}
				entry.Extension = ext
				entry.Directory = dir
				entry.Name = treeString(name)
				p.add(entry)
			}
		}
	}
}

func readEntry(r *treeReader) (*Entry, error) {
	rec, err := r.take(entryRecordSize)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		CRC32:        binary.LittleEndian.Uint32(rec[0:4]),
		ArchiveIndex: binary.LittleEndian.Uint16(rec[6:8]),
		Offset:       binary.LittleEndian.Uint32(rec[8:12]),
		Length:       binary.LittleEndian.Uint32(rec[12:16]),
	}
	preloadSize := int(binary.LittleEndian.Uint16(rec[4:6]))
	if term := binary.LittleEndian.Uint16(rec[16:18]); term != entryTerminator {
		return nil, fmt.Errorf("vpk: bad entry terminator 0x%04X", term)
	}
	if preloadSize > 0 {
		preload, err := r.take(preloadSize)
		if err != nil {
			return nil, err
		}
		e.Preload = append([]byte(nil), preload...)
	}
	return e, nil
}

func (p *Package) add(e *Entry) {
	if _, ok := p.byExt[e.Extension]; !ok {
		p.extensions = append(p.extensions, e.Extension)
	}
	p.byExt[e.Extension] = append(p.byExt[e.Extension], e)
	p.byPath[e.Path()] = e
	p.files = append(p.files, e)
}
