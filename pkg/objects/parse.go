package objects

import (
	"bytes"
	"fmt"
	"strings"
)

// Decoded is a decompressed loose object whose header has been parsed.
type Decoded struct {
	Type    ObjectType
	Content []byte
}

// Decode inflates a fetched loose object and splits the header from the
// content. The declared size is checked against the actual content length
// since a truncated response would otherwise corrupt the reconstruction.
func Decode(compressed []byte) (*Decoded, error) {
	data, err := Decompress(compressed)
	if err != nil {
		return nil, err
	}

	objType, size, contentStart, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	content := data[contentStart:]
	if int64(len(content)) != size {
		return nil, fmt.Errorf("%s size mismatch: header says %d, got %d", objType, size, len(content))
	}

	return &Decoded{Type: objType, Content: content}, nil
}

// References extracts every object identifier the object points at:
// commit -> tree + parents, tree -> entry identifiers, tag -> target,
// blob -> nothing. A malformed payload yields the identifiers parsed up to
// the error together with the error, so partial recovery stays possible.
func (d *Decoded) References() ([]ObjectID, error) {
	switch d.Type {
	case CommitType:
		return commitReferences(d.Content)
	case TreeType:
		return treeReferences(d.Content)
	case TagType:
		return tagReferences(d.Content)
	case BlobType:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown object type: %s", d.Type)
	}
}

// commitReferences reads the "tree" and "parent" header lines of a commit.
// Header lines end at the first blank line; the message after it may legally
// contain anything and is ignored.
func commitReferences(content []byte) ([]ObjectID, error) {
	var ids []ObjectID
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			break
		}

		var raw string
		switch {
		case strings.HasPrefix(line, "tree "):
			raw = strings.TrimPrefix(line, "tree ")
		case strings.HasPrefix(line, "parent "):
			raw = strings.TrimPrefix(line, "parent ")
		default:
			continue
		}

		id, err := ParseObjectID(raw)
		if err != nil {
			return ids, fmt.Errorf("malformed commit reference line %q: %w", line, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// treeReferences walks the binary entry list of a tree object:
// "<mode> <name>\0" followed by a raw 20-byte identifier, repeated.
func treeReferences(content []byte) ([]ObjectID, error) {
	var ids []ObjectID
	rest := content
	for len(rest) > 0 {
		nullIndex := bytes.IndexByte(rest, nullByte)
		if nullIndex == -1 {
			return ids, fmt.Errorf("malformed tree entry: missing null terminator")
		}
		if len(rest) < nullIndex+1+RawIDLength {
			return ids, fmt.Errorf("malformed tree entry: truncated identifier")
		}

		header := rest[:nullIndex]
		if bytes.IndexByte(header, spaceByte) == -1 {
			return ids, fmt.Errorf("malformed tree entry header %q", header)
		}

		id, err := IDFromRaw(rest[nullIndex+1 : nullIndex+1+RawIDLength])
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)

		rest = rest[nullIndex+1+RawIDLength:]
	}
	return ids, nil
}

// tagReferences reads the "object" header line of an annotated tag.
func tagReferences(content []byte) ([]ObjectID, error) {
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			break
		}
		if raw, ok := strings.CutPrefix(line, "object "); ok {
			id, err := ParseObjectID(raw)
			if err != nil {
				return nil, fmt.Errorf("malformed tag object line %q: %w", line, err)
			}
			return []ObjectID{id}, nil
		}
	}
	return nil, fmt.Errorf("tag has no object line")
}
