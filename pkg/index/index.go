package index

import (
	"bytes"
	"encoding/binary"
	"fmt"

	baseerr "github.com/hexrift/gitrip/pkg/common/err"
	"github.com/hexrift/gitrip/pkg/objects"
)

const pkgName = "index"

// Index file format constants.
//
//	┌────────────────────────────────────────┐
//	│ Header (12 bytes)                      │
//	│   Signature: "DIRC" (4 bytes)          │
//	│   Version (4 bytes, big-endian)        │
//	│   Entry count (4 bytes, big-endian)    │
//	├────────────────────────────────────────┤
//	│ Entries (8-byte aligned)               │
//	├────────────────────────────────────────┤
//	│ Extensions, SHA-1 checksum             │
//	└────────────────────────────────────────┘
const (
	Signature  = "DIRC"
	headerSize = 12

	// entryFixedSize covers everything before the path name: ctime/mtime
	// (16), dev/ino/mode/uid/gid/size (24), identifier (20), flags (2).
	entryFixedSize = 62

	flagExtendedMask   = 0x4000
	flagNameLengthMask = 0x0FFF

	alignment = 8
)

// Entry is one tracked path in the index. Only what the recovery needs is
// kept; timestamps and stat metadata are parsed past, not retained.
type Entry struct {
	Path   string
	BlobID objects.ObjectID
	Mode   uint32
}

// Index is the parsed result.
type Index struct {
	Version uint32
	Entries []Entry
}

// BlobIDs returns the identifier of every entry, deduplicated.
func (idx *Index) BlobIDs() []objects.ObjectID {
	seen := make(map[objects.ObjectID]bool, len(idx.Entries))
	ids := make([]objects.ObjectID, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		if !seen[e.BlobID] {
			seen[e.BlobID] = true
			ids = append(ids, e.BlobID)
		}
	}
	return ids
}

// Parse reads a fetched binary index file. The parser is deliberately
// forgiving: exposed index files are frequently truncated mid-entry, so it
// returns whatever entries it managed to parse alongside the error.
// Versions 2 and 3 are understood; any other version is skipped after
// signature validation (version 4 prefix-compresses path names and would
// need a different entry walk).
func Parse(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, baseerr.New(pkgName, baseerr.CodeParse, "read_header", "index file too small", nil)
	}

	if !bytes.Equal(data[:4], []byte(Signature)) {
		return nil, baseerr.New(pkgName, baseerr.CodeParse, "read_header",
			fmt.Sprintf("bad index signature %q", data[:4]), nil)
	}

	version := binary.BigEndian.Uint32(data[4:8])
	entryCount := binary.BigEndian.Uint32(data[8:12])

	idx := &Index{Version: version}
	if version != 2 && version != 3 {
		return idx, baseerr.New(pkgName, baseerr.CodeParse, "read_header",
			fmt.Sprintf("unsupported index version %d", version), nil)
	}

	// A lying entry count on a truncated file must not make us loop past
	// the buffer; each iteration re-checks remaining bytes.
	rest := data[headerSize:]
	for i := uint32(0); i < entryCount; i++ {
		entry, consumed, err := parseEntry(rest)
		if err != nil {
			return idx, baseerr.New(pkgName, baseerr.CodeParse, "read_entry",
				fmt.Sprintf("entry %d of %d", i, entryCount), err)
		}
		idx.Entries = append(idx.Entries, entry)
		rest = rest[consumed:]
	}

	return idx, nil
}

// parseEntry reads one 8-byte-aligned entry and returns how many bytes it
// occupied.
func parseEntry(data []byte) (Entry, int, error) {
	if len(data) < entryFixedSize {
		return Entry{}, 0, fmt.Errorf("truncated entry: %d bytes left", len(data))
	}

	// Stat metadata occupies the first 40 bytes; only the mode matters.
	mode := binary.BigEndian.Uint32(data[24:28])

	id, err := objects.IDFromRaw(data[40:60])
	if err != nil {
		return Entry{}, 0, err
	}

	flags := binary.BigEndian.Uint16(data[60:62])
	nameOffset := entryFixedSize
	if flags&flagExtendedMask != 0 {
		// Version 3 adds a 16-bit extended-flags word before the name.
		nameOffset += 2
		if len(data) < nameOffset {
			return Entry{}, 0, fmt.Errorf("truncated extended flags")
		}
	}

	nameLen := int(flags & flagNameLengthMask)
	var name []byte
	if nameLen < flagNameLengthMask {
		if len(data) < nameOffset+nameLen {
			return Entry{}, 0, fmt.Errorf("truncated path name")
		}
		name = data[nameOffset : nameOffset+nameLen]
	} else {
		// Names of 4095 bytes or longer store 0xFFF and are found by
		// scanning for the terminator.
		end := bytes.IndexByte(data[nameOffset:], 0)
		if end == -1 {
			return Entry{}, 0, fmt.Errorf("unterminated long path name")
		}
		name = data[nameOffset : nameOffset+end]
		nameLen = end
	}

	// Entries are null-padded so the next one starts on an 8-byte
	// boundary; there is always at least the terminating null.
	consumed := ((nameOffset+nameLen)/alignment + 1) * alignment
	if len(data) < consumed {
		return Entry{}, 0, fmt.Errorf("truncated entry padding")
	}

	return Entry{
		Path:   string(name),
		BlobID: id,
		Mode:   mode,
	}, consumed, nil
}
