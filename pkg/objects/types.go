package objects

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// ObjectType represents the type of a Git object.
type ObjectType string

const (
	BlobType   ObjectType = "blob"
	TreeType   ObjectType = "tree"
	CommitType ObjectType = "commit"
	TagType    ObjectType = "tag"
)

const (
	nullByte  = byte(0)
	spaceByte = byte(' ')
)

// String implements the Stringer interface.
func (o ObjectType) String() string {
	return string(o)
}

// ParseObjectType converts a string to ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case BlobType, TreeType, CommitType, TagType:
		return ObjectType(s), nil
	default:
		return "", fmt.Errorf("unknown object type: %s", s)
	}
}

// ParseHeader parses the "<type> <size>\0" header of a decompressed loose
// object. It returns the type, the declared content size, and the offset at
// which the content starts.
func ParseHeader(data []byte) (ObjectType, int64, int, error) {
	nullIndex := bytes.IndexByte(data, nullByte)
	if nullIndex == -1 {
		return "", 0, 0, fmt.Errorf("invalid object header: missing null byte")
	}

	spaceIndex := bytes.IndexByte(data[:nullIndex], spaceByte)
	if spaceIndex == -1 {
		return "", 0, 0, fmt.Errorf("invalid object header: missing space")
	}

	objType, err := ParseObjectType(string(data[:spaceIndex]))
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid object type: %w", err)
	}

	size, err := strconv.ParseInt(string(data[spaceIndex+1:nullIndex]), 10, 64)
	if err != nil || size < 0 {
		return "", 0, 0, fmt.Errorf("invalid size in object header: %q", data[spaceIndex+1:nullIndex])
	}

	return objType, size, nullIndex + 1, nil
}

// Decompress inflates the zlib stream of a fetched loose object.
func Decompress(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate object: %w", err)
	}
	return data, nil
}

// Compress deflates a serialized object the way Git stores it on disk.
// The dump itself never re-compresses anything it fetched; this exists for
// constructing loose objects in tests and fixtures.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("deflate object: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize zlib stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Serialize builds "<type> <size>\0<content>", the plaintext form of a loose
// object. Fixture helper, the counterpart of ParseHeader.
func Serialize(objType ObjectType, content []byte) []byte {
	header := fmt.Sprintf("%s %d%c", objType, len(content), nullByte)
	return append([]byte(header), content...)
}
