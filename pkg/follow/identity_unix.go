//go:build !windows

package follow

import (
	"os"
	"syscall"
)

// fingerprint returns the inode number of the file. Rotation via
// rename or delete-and-recreate always produces a new inode, which is
// what the truncation detection relies on.
func fingerprint(fi os.FileInfo) uint64 {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}

	return stat.Ino
}
