package vpk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"
)

// Option configures a Package.
type Option func(*Package)

// WithChecksumVerification makes ReadFile validate entry CRC32 values.
func WithChecksumVerification() Option {
	return func(p *Package) {
		p.verifyCRC = true
	}
}

// Package is an opened VPK archive.
type Package struct {
	path       string
	header     Header
	dataOffset int64
	verifyCRC  bool

	dir    io.ReaderAt
	closer io.Closer
	chunks map[uint16]*os.File

	files      []*Entry
	byExt      map[string][]*Entry
	byPath     map[string]*Entry
	extensions []string
}

// Open reads the directory tree of the package at path. Data is read lazily;
// the returned Package must be closed.
func Open(path string, opts ...Option) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	p, err := newPackage(f, info.Size(), opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	p.path = path
	p.closer = f
	return p, nil
}

// Read parses a package held in r. Entries stored in separate chunk files
// cannot be read from a Package created this way.
func Read(r io.ReaderAt, size int64, opts ...Option) (*Package, error) {
	return newPackage(r, size, opts...)
}

func newPackage(r io.ReaderAt, size int64, opts ...Option) (*Package, error) {
	p := &Package{
		dir:    r,
		byExt:  make(map[string][]*Entry),
		byPath: make(map[string]*Entry),
		chunks: make(map[uint16]*os.File),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.readHeader(size); err != nil {
		return nil, err
	}
	tree := make([]byte, p.header.TreeSize)
	if _, err := r.ReadAt(tree, p.header.size()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if err := p.parseTree(tree); err != nil {
		return nil, err
	}
	p.dataOffset = p.header.size() + int64(p.header.TreeSize)
	return p, nil
}

func (p *Package) readHeader(size int64) error {
	if size < headerSizeV1 {
		return fmt.Errorf("%w: file is %d bytes", ErrInvalidSignature, size)
	}
	buf := make([]byte, headerSizeV2)
	n, err := p.dir.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read header: %w", err)
	}
	buf = buf[:n]

	h := Header{
		Signature: binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		TreeSize:  binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Signature != Signature {
		return fmt.Errorf("%w: 0x%08X", ErrInvalidSignature, h.Signature)
	}
	switch h.Version {
	case 1:
	case 2:
		if len(buf) < headerSizeV2 {
			return fmt.Errorf("%w: header", ErrTruncated)
		}
		h.FileDataSectionSize = binary.LittleEndian.Uint32(buf[12:16])
		h.ArchiveMD5SectionSize = binary.LittleEndian.Uint32(buf[16:20])
		h.OtherMD5SectionSize = binary.LittleEndian.Uint32(buf[20:24])
		h.SignatureSectionSize = binary.LittleEndian.Uint32(buf[24:28])
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.size()+int64(h.TreeSize) > size {
		return fmt.Errorf("%w: tree size %d exceeds file size %d", ErrTruncated, h.TreeSize, size)
	}
	p.header = h
	return nil
}

// Header returns the parsed directory header.
func (p *Package) Header() Header {
	return p.header
}

// Extensions returns every extension present, in directory order.
func (p *Package) Extensions() []string {
	out := make([]string, len(p.extensions))
	copy(out, p.extensions)
	return out
}

// Files returns every entry in directory order.
func (p *Package) Files() []*Entry {
	out := make([]*Entry, len(p.files))
	copy(out, p.files)
	return out
}

// Entries returns the paths of all entries with the given extension.
func (p *Package) Entries(ext string) []string {
	list := p.byExt[strings.TrimPrefix(ext, ".")]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Path())
	}
	return out
}

// Lookup returns the entry stored at path.
func (p *Package) Lookup(path string) (*Entry, bool) {
	e, ok := p.byPath[path]
	return e, ok
}

// ReadFile returns the contents of the entry at path.
func (p *Package) ReadFile(path string) ([]byte, error) {
	e, ok := p.byPath[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryMissing, path)
	}
	return p.ReadEntry(e)
}

// ReadEntry returns the preload bytes of e followed by its archive data.
func (p *Package) ReadEntry(e *Entry) ([]byte, error) {
	out := make([]byte, e.Size())
	copy(out, e.Preload)
	if e.Length > 0 {
		src, base, err := p.source(e.ArchiveIndex)
		if err != nil {
			return nil, err
		}
		if _, err := src.ReadAt(out[len(e.Preload):], base+int64(e.Offset)); err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Path(), err)
		}
	}
	if p.verifyCRC {
		if sum := crc32.ChecksumIEEE(out); sum != e.CRC32 {
			return nil, fmt.Errorf("%w: %s has 0x%08X, expected 0x%08X", ErrChecksumMismatch, e.Path(), sum, e.CRC32)
		}
	}
	return out, nil
}

func (p *Package) source(index uint16) (io.ReaderAt, int64, error) {
	if index == dirArchiveIndex {
		return p.dir, p.dataOffset, nil
	}
	if f, ok := p.chunks[index]; ok {
		return f, 0, nil
	}
	name, err := p.chunkPath(index)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open archive chunk: %w", err)
	}
	p.chunks[index] = f
	return f, 0, nil
}

func (p *Package) chunkPath(index uint16) (string, error) {
	const dirSuffix = "_dir.vpk"
	if !strings.HasSuffix(p.path, dirSuffix) {
		return "", fmt.Errorf("vpk: entry references archive %d but %q is not a directory file", index, p.path)
	}
	return fmt.Sprintf("%s_%03d.vpk", strings.TrimSuffix(p.path, dirSuffix), index), nil
}

// Close releases the directory file and any opened chunk files.
func (p *Package) Close() error {
	var errs []error
	for idx, f := range p.chunks {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.chunks, idx)
	}
	if p.closer != nil {
		if err := p.closer.Close(); err != nil {
			errs = append(errs, err)
		}
		p.closer = nil
	}
	return errors.Join(errs...)
}
