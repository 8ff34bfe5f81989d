package gitpath

import "fmt"

// ObjectPath maps a 40-character hex object identifier to its loose
// storage location: objects/<first 2 chars>/<remaining 38 chars>.
func ObjectPath(id string) (RelPath, error) {
	if len(id) != 40 {
		return "", fmt.Errorf("object id must be 40 hex characters, got %d", len(id))
	}
	return RelPath("objects/" + id[:2] + "/" + id[2:]), nil
}
