package places

import (
	"errors"
	"fmt"
)

// ErrEntryNotFound indicates the archive has no entity lump entry.
var ErrEntryNotFound = errors.New("entity lump entry not found")

// Archive is an opened package file.
type Archive interface {
	// Entries returns the paths stored under key, in archive order.
	Entries(key string) []string
	// ReadFile returns the full contents of the entry at path.
	ReadFile(path string) ([]byte, error)
	Close() error
}

// ArchiveOpener opens archives by file path.
type ArchiveOpener interface {
	Open(path string) (Archive, error)
}

// ResourceDecoder turns raw entry bytes into an entity lump.
type ResourceDecoder interface {
	DecodeEntityLump(data []byte) (EntityLump, error)
}

// Locator finds and decodes the entity lump of an archive.
type Locator struct {
	archives ArchiveOpener
	decoder  ResourceDecoder
}

// NewLocator returns a Locator reading archives through opener and decoding
// entries with decoder.
func NewLocator(opener ArchiveOpener, decoder ResourceDecoder) *Locator {
	return &Locator{archives: opener, decoder: decoder}
}

// Locate opens the archive at path and decodes the first vents_c entry.
// It returns ErrEntryNotFound when the archive has no such entry. The archive
// is closed before Locate returns.
func (l *Locator) Locate(path string) (lump EntityLump, err error) {
	if l == nil || l.archives == nil || l.decoder == nil {
		return nil, errors.New("locator is not configured")
	}
	archive, err := l.archives.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		if cerr := archive.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()

	entries := archive.Entries(EntryKey)
	if len(entries) == 0 {
		return nil, ErrEntryNotFound
	}
	data, err := archive.ReadFile(entries[0])
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", entries[0], err)
	}
	lump, err = l.decoder.DecodeEntityLump(data)
	if err != nil {
		return nil, fmt.Errorf("decode entry %s: %w", entries[0], err)
	}
	return lump, nil
}

// Extract runs the full pipeline for one archive and returns its places.
func (l *Locator) Extract(path string) (*PlaceMap, error) {
	lump, err := l.Locate(path)
	if err != nil {
		return nil, err
	}
	records, err := Decode(lump)
	if err != nil {
		return nil, err
	}
	return Aggregate(records)
}
