package vpk

import (
	"errors"
	"path"
	"strings"
)

const (
	// Signature is the magic number at the start of every directory file.
	Signature uint32 = 0x55AA1234

	headerSizeV1 = 12
	headerSizeV2 = 28

	// dirArchiveIndex marks entries whose data follows the directory tree.
	dirArchiveIndex uint16 = 0x7FFF
	entryTerminator uint16 = 0xFFFF
)

var (
	ErrInvalidSignature   = errors.New("vpk: invalid signature")
	ErrUnsupportedVersion = errors.New("vpk: unsupported version")
	ErrTruncated          = errors.New("vpk: truncated directory tree")
	ErrEntryMissing       = errors.New("vpk: entry not found")
	ErrChecksumMismatch   = errors.New("vpk: checksum mismatch")
)

// Header is the fixed-size prefix of a directory file. The section sizes are
// zero for version 1 packages.
type Header struct {
	Signature             uint32
	Version               uint32
	TreeSize              uint32
	FileDataSectionSize   uint32
	ArchiveMD5SectionSize uint32
	OtherMD5SectionSize   uint32
	SignatureSectionSize  uint32
}

func (h Header) size() int64 {
	if h.Version == 1 {
		return headerSizeV1
	}
	return headerSizeV2
}

// Entry describes a single file stored in the package.
type Entry struct {
	Extension    string
	Directory    string
	Name         string
	CRC32        uint32
	Preload      []byte
	ArchiveIndex uint16
	Offset       uint32
	Length       uint32
}

// Path returns the entry path relative to the package root.
func (e *Entry) Path() string {
	file := e.Name
	if e.Extension != "" {
		file += "." + e.Extension
	}
	if e.Directory == "" {
		return file
	}
	return path.Join(e.Directory, file)
}

// Size returns the total number of bytes of the entry, preload included.
func (e *Entry) Size() int64 {
	return int64(len(e.Preload)) + int64(e.Length)
}

// InDirectoryFile reports whether the entry data lives in the directory file.
func (e *Entry) InDirectoryFile() bool {
	return e.ArchiveIndex == dirArchiveIndex
}

// treeString maps the single-space placeholder used for empty tree components.
func treeString(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
