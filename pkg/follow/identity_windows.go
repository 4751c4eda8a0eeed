//go:build windows

package follow

import (
	"os"
	"syscall"
)

// fingerprint derives an identity token from the file's creation time.
// Windows has no inode; the creation time changes when the file is
// replaced but not when it is appended to, which is the property the
// truncation detection needs.
func fingerprint(fi os.FileInfo) uint64 {
	attr, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return 0
	}

	return uint64(attr.CreationTime.Nanoseconds())
}
