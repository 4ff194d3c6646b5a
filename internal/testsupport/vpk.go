package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"path"
	"path/filepath"
	"strings"
	"testing"
)

const (
	vpkSignature    uint32 = 0x55AA1234
	vpkDirArchive   uint16 = 0x7FFF
	vpkTerminator   uint16 = 0xFFFF
	vpkEmptyElement        = " "
)

// VPKFile is one entry of a synthetic package.
type VPKFile struct {
	Path string
	Data []byte
	// PreloadBytes of Data are stored inline in the directory tree.
	PreloadBytes int
	// BadCRC stores a checksum that does not match Data.
	BadCRC bool
}

// VPKOptions controls the layout of a synthetic package.
type VPKOptions struct {
	// Version is 1 or 2; zero means 2.
	Version uint32
	// Chunked stores entry data in archive 0 instead of the directory file.
	Chunked bool
}

// BuildVPK encodes files as a VPK directory file. When opts.Chunked is set the
// second return value holds the contents of archive chunk 000.
func BuildVPK(opts VPKOptions, files ...VPKFile) (dirFile []byte, chunk []byte) {
	version := opts.Version
	if version == 0 {
		version = 2
	}

	type group struct {
		dir   string
		files []VPKFile
	}
	type extGroup struct {
		ext  string
		dirs []*group
	}
	var exts []*extGroup
	byExt := map[string]*extGroup{}
	for _, f := range files {
		ext, dir, _ := splitVPKPath(f.Path)
		eg, ok := byExt[ext]
		if !ok {
			eg = &extGroup{ext: ext}
			byExt[ext] = eg
			exts = append(exts, eg)
		}
		var g *group
		for _, existing := range eg.dirs {
			if existing.dir == dir {
				g = existing
				break
			}
		}
		if g == nil {
			g = &group{dir: dir}
			eg.dirs = append(eg.dirs, g)
		}
		g.files = append(g.files, f)
	}

	var tree, data bytes.Buffer
	for _, eg := range exts {
		writeCString(&tree, eg.ext)
		for _, g := range eg.dirs {
			writeCString(&tree, g.dir)
			for _, f := range g.files {
				_, _, name := splitVPKPath(f.Path)
				writeCString(&tree, name)

				preload := f.PreloadBytes
				if preload > len(f.Data) {
					preload = len(f.Data)
				}
				rest := f.Data[preload:]
				crc := crc32.ChecksumIEEE(f.Data)
				if f.BadCRC {
					crc ^= 0xFFFFFFFF
				}
				archive := vpkDirArchive
				if opts.Chunked {
					archive = 0
				}
				var rec [18]byte
				binary.LittleEndian.PutUint32(rec[0:4], crc)
				binary.LittleEndian.PutUint16(rec[4:6], uint16(preload))
				binary.LittleEndian.PutUint16(rec[6:8], archive)
				binary.LittleEndian.PutUint32(rec[8:12], uint32(data.Len()))
				binary.LittleEndian.PutUint32(rec[12:16], uint32(len(rest)))
				binary.LittleEndian.PutUint16(rec[16:18], vpkTerminator)
				tree.Write(rec[:])
				tree.Write(f.Data[:preload])
				data.Write(rest)
			}
			tree.WriteByte(0)
		}
		tree.WriteByte(0)
	}
	tree.WriteByte(0)

	var out bytes.Buffer
	header := []uint32{vpkSignature, version, uint32(tree.Len())}
	if version == 2 {
		dataSize := uint32(data.Len())
		if opts.Chunked {
			dataSize = 0
		}
		header = append(header, dataSize, 0, 0, 0)
	}
	for _, v := range header {
		_ = binary.Write(&out, binary.LittleEndian, v)
	}
	out.Write(tree.Bytes())
	if opts.Chunked {
		return out.Bytes(), data.Bytes()
	}
	out.Write(data.Bytes())
	return out.Bytes(), nil
}

func splitVPKPath(p string) (ext, dir, name string) {
	dir = path.Dir(p)
	if dir == "." || dir == "" {
		dir = vpkEmptyElement
	}
	base := path.Base(p)
	ext = strings.TrimPrefix(path.Ext(base), ".")
	name = strings.TrimSuffix(base, path.Ext(base))
	if ext == "" {
		ext = vpkEmptyElement
	}
	return ext, dir, name
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}

// WriteVPK writes a single-file version 2 package to path.
func WriteVPK(t testing.TB, path string, files ...VPKFile) {
	t.Helper()
	data, _ := BuildVPK(VPKOptions{}, files...)
	WriteFile(t, path, data)
}

// WriteChunkedVPK writes <base>_dir.vpk and <base>_000.vpk into dir and
// returns the directory file path.
func WriteChunkedVPK(t testing.TB, dir, base string, files ...VPKFile) string {
	t.Helper()
	dirFile, chunk := BuildVPK(VPKOptions{Chunked: true}, files...)
	dirPath := filepath.Join(dir, base+"_dir.vpk")
	WriteFile(t, dirPath, dirFile)
	WriteFile(t, filepath.Join(dir, fmt.Sprintf("%s_%03d.vpk", base, 0)), chunk)
	return dirPath
}
