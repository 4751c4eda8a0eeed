package follow

import (
	"os"
	"time"
)

// FileIdentity captures the size and identity of a file at one
// observation. The fingerprint distinguishes "same file grew" from
// "file was replaced": two identities with equal fingerprints refer to
// the same generation of the file.
type FileIdentity struct {
	Size        int64
	Fingerprint uint64
	ModTime     time.Time
}

// SameFile reports whether both identities refer to the same file
// generation.
func (id FileIdentity) SameFile(other FileIdentity) bool {
	return id.Fingerprint == other.Fingerprint
}

// Cursor tracks the next unread byte offset and the identity it was
// last validated against. It is owned by the engine; backends only
// read it.
type Cursor struct {
	Offset   int64
	Identity FileIdentity
}

func identityFromInfo(fi os.FileInfo) FileIdentity {
	return FileIdentity{
		Size:        fi.Size(),
		Fingerprint: fingerprint(fi),
		ModTime:     fi.ModTime(),
	}
}

func identityOf(path string) (FileIdentity, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return FileIdentity{}, err
	}

	return identityFromInfo(fi), nil
}
