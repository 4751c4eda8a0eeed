package follow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Errors surfaced to the caller. A file that disappears while being
// followed is handled internally by re-polling for its reappearance
// and never produces an error here.
var (
	// ErrNotFound is returned when the file does not exist at startup.
	ErrNotFound = errors.New("file not found")
	// ErrPermissionDenied is returned when the file cannot be opened at startup.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrSetupFailed is returned when a backend subscription cannot be
	// established. The caller may retry with the poll backend.
	ErrSetupFailed = errors.New("backend setup failed")
	// ErrFatal wraps unrecoverable read or stat errors after startup.
	ErrFatal = errors.New("unrecoverable error")
)

// classifyOpenErr maps an os.Open failure to the startup error taxonomy.
func classifyOpenErr(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrNotFound, pathFromErr(err))
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, pathFromErr(err))
	default:
		return err
	}
}

func pathFromErr(err error) string {
	var perr *os.PathError
	if errors.As(err, &perr) {
		return perr.Path
	}
	return err.Error()
}
