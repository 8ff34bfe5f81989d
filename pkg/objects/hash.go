package objects

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hexrift/gitrip/pkg/gitpath"
)

// ObjectID is the SHA-1 identifier of a Git object as a 40-character hex
// string, e.g. "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391". It uniquely
// determines the loose storage path of the object on the target server.
type ObjectID string

const (
	// IDLength is the length of a full SHA-1 identifier in hex characters.
	IDLength = 40
	// RawIDLength is the length of a SHA-1 identifier in bytes.
	RawIDLength = 20
	// ShortIDLength is the conventional abbreviation length.
	ShortIDLength = 7
)

// zeroID marks an unborn ref, seen as the "old" value of the first reflog
// entry of every branch.
const zeroID ObjectID = "0000000000000000000000000000000000000000"

// ParseObjectID validates s and returns it as an ObjectID.
func ParseObjectID(s string) (ObjectID, error) {
	id := ObjectID(strings.ToLower(strings.TrimSpace(s)))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// IDFromRaw converts a 20-byte binary hash to an ObjectID.
func IDFromRaw(raw []byte) (ObjectID, error) {
	if len(raw) != RawIDLength {
		return "", fmt.Errorf("raw hash must be %d bytes, got %d", RawIDLength, len(raw))
	}
	return ObjectID(hex.EncodeToString(raw)), nil
}

// String returns the identifier as a plain string.
func (id ObjectID) String() string {
	return string(id)
}

// Validate checks length and hex content.
func (id ObjectID) Validate() error {
	if len(id) != IDLength {
		return fmt.Errorf("object id must be %d characters, got %d", IDLength, len(id))
	}
	for _, c := range id {
		if !isHexChar(c) {
			return fmt.Errorf("object id contains non-hex character %q", c)
		}
	}
	return nil
}

// IsValid reports whether the identifier is well-formed.
func (id ObjectID) IsValid() bool {
	return id.Validate() == nil
}

// IsZero reports whether this is the all-zero identifier.
func (id ObjectID) IsZero() bool {
	return id == zeroID
}

// Short returns the conventional 7-character abbreviation.
func (id ObjectID) Short() string {
	if len(id) >= ShortIDLength {
		return string(id[:ShortIDLength])
	}
	return string(id)
}

// Path returns the loose object location under the .git directory.
func (id ObjectID) Path() (gitpath.RelPath, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	return gitpath.ObjectPath(string(id))
}

func isHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}
