package follow

import (
	"bytes"
	"fmt"
	"io"
)

const scanChunkSize = 4096

// lastLineOffset returns the byte offset immediately after the last
// line terminator preceding end-of-file, or 0 when the file contains
// no terminator or is empty. The file is scanned backward in fixed
// chunks so an arbitrarily large file is never read whole.
//
// A file ending exactly with a terminator yields an offset equal to
// the file size: the "last line" is empty and only bytes appended
// afterwards will be read.
func lastLineOffset(r io.ReadSeeker) (int64, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("seek to end: %w", err)
	}

	buf := make([]byte, scanChunkSize)

	for pos := size; pos > 0; {
		n := int64(len(buf))
		if pos < n {
			n = pos
		}

		pos -= n

		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek to %d: %w", pos, err)
		}

		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return 0, fmt.Errorf("read chunk at %d: %w", pos, err)
		}

		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return pos + int64(i) + 1, nil
		}
	}

	return 0, nil
}
