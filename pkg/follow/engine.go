package follow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/tailscope/tailscope/pkg/metrics"
)

const readChunkSize = 32 * 1024

// Line is a single complete line read from the followed file, with its
// terminator stripped.
type Line struct {
	Text string
	Time time.Time
}

// WatchConfig selects the file to follow and the change-detection
// strategy. It is immutable for the lifetime of one engine.
type WatchConfig struct {
	Path         string
	Backend      BackendKind
	PollInterval time.Duration
}

// Engine follows a single file: it locates the last line once at
// startup, then waits on its backend for changes, reads the new bytes
// and emits complete lines on the Lines channel in strict append
// order. Partial lines are held back until their terminator arrives.
//
// On truncation or rotation the engine drops any partial line from the
// old generation, reopens the file and emits the new content from the
// beginning. If the file disappears it keeps waiting silently for it
// to be recreated, since log rotation commonly does exactly that.
type Engine struct {
	cfg     WatchConfig
	backend Backend
	logger  *log.Entry
	lines   chan *Line
	tomb    *tomb.Tomb

	// all below are owned by the run goroutine
	fd    *os.File
	cur   Cursor
	carry []byte
}

func NewEngine(cfg WatchConfig) (*Engine, error) {
	backend, err := NewBackend(cfg.Backend, cfg.Path, cfg.PollInterval)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		backend: backend,
		logger:  log.WithField("file", cfg.Path),
		lines:   make(chan *Line, 100),
		tomb:    &tomb.Tomb{},
	}, nil
}

// Start opens the file, locates the start of its last line and
// launches the follow goroutine. It returns ErrNotFound or
// ErrPermissionDenied if the file cannot be opened.
func (e *Engine) Start() error {
	fd, err := os.Open(e.cfg.Path)
	if err != nil {
		e.backend.Close()
		return classifyOpenErr(err)
	}

	offset, err := lastLineOffset(fd)
	if err != nil {
		fd.Close()
		e.backend.Close()

		return fmt.Errorf("%w: locating last line of %s: %s", ErrFatal, e.cfg.Path, err)
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		e.backend.Close()

		return fmt.Errorf("%w: stat %s: %s", ErrFatal, e.cfg.Path, err)
	}

	e.fd = fd
	e.cur = Cursor{Offset: offset, Identity: identityFromInfo(fi)}

	e.logger.Debugf("following from offset %d of %d", offset, fi.Size())
	e.tomb.Go(e.run)

	return nil
}

// Lines returns the channel of emitted lines. It is closed when the
// engine terminates.
func (e *Engine) Lines() <-chan *Line {
	return e.lines
}

// Stop cancels the follow promptly, including a backend wait in
// progress, and returns the engine's final error.
func (e *Engine) Stop() error {
	e.tomb.Kill(nil)
	return e.tomb.Wait()
}

// Err returns the error the engine terminated with, or nil while it is
// still running.
func (e *Engine) Err() error {
	if err := e.tomb.Err(); err != tomb.ErrStillAlive {
		return err
	}

	return nil
}

func (e *Engine) run() error {
	defer close(e.lines)
	defer e.backend.Close()
	defer func() {
		if e.fd != nil {
			e.fd.Close()
		}
	}()

	ctx := e.tomb.Context(nil)

	// Consume anything already sitting past the last-line offset so
	// both backends start from the same state. An unterminated last
	// line lands in the carry buffer and is emitted once its
	// terminator arrives.
	if e.cur.Identity.Size > e.cur.Offset {
		if err := e.readDelta(); err != nil {
			return e.terminate(err)
		}
	}

	for {
		kind, id, err := e.backend.WaitForChange(ctx, e.cur)
		if err != nil {
			return e.terminate(err)
		}

		if kind != Unchanged {
			metrics.FileChanges.With(prometheus.Labels{"source": e.cfg.Path, "kind": kind.String()}).Inc()
		}

		switch kind {
		case Unchanged:
			e.cur.Identity = id

		case Gone:
			e.logger.Debug("file is gone, waiting for it to reappear")

		case Truncated:
			e.logger.Info("file truncated or rotated, restarting from the beginning")

			ok, err := e.resetGeneration()
			if err != nil {
				return e.terminate(err)
			}

			if !ok {
				// deleted between the backend's stat and our reopen
				continue
			}

			if err := e.readDelta(); err != nil {
				return e.terminate(err)
			}

		case Grown:
			e.cur.Identity = id

			if err := e.readDelta(); err != nil {
				return e.terminate(err)
			}
		}
	}
}

// terminate maps internal errors to the caller-facing taxonomy. A stop
// request is a clean shutdown, everything else is fatal.
func (e *Engine) terminate(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, tomb.ErrDying) {
		return nil
	}

	if errors.Is(err, ErrFatal) {
		return err
	}

	return fmt.Errorf("%w: %s", ErrFatal, err)
}

// resetGeneration reopens the file after a truncation or rotation and
// rewinds the cursor to the start. The carry buffer is discarded: a
// partial line from the old generation must never be glued onto the
// new one. Returns false if the file vanished before it could be
// reopened.
func (e *Engine) resetGeneration() (bool, error) {
	e.fd.Close()
	e.fd = nil
	e.carry = e.carry[:0]

	fd, err := os.Open(e.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("%w: reopening %s: %s", ErrFatal, e.cfg.Path, err)
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return false, fmt.Errorf("%w: stat %s: %s", ErrFatal, e.cfg.Path, err)
	}

	e.fd = fd
	e.cur = Cursor{Offset: 0, Identity: identityFromInfo(fi)}

	return true, nil
}

// readDelta reads from the cursor offset to end-of-file, appends the
// bytes to the carry buffer and emits every complete line found. A
// read error on a present file is fatal rather than retried, to avoid
// masking corruption.
func (e *Engine) readDelta() error {
	if _, err := e.fd.Seek(e.cur.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek in %s: %s", ErrFatal, e.cfg.Path, err)
	}

	buf := make([]byte, readChunkSize)

	for {
		n, err := e.fd.Read(buf)
		if n > 0 {
			e.cur.Offset += int64(n)
			e.carry = append(e.carry, buf[:n]...)

			if err := e.emitCarry(); err != nil {
				return err
			}
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("%w: reading %s: %s", ErrFatal, e.cfg.Path, err)
		}
	}
}

// emitCarry sends every complete line in the carry buffer, keeping the
// trailing partial line. The buffer never contains a terminator when
// this returns.
func (e *Engine) emitCarry() error {
	for {
		i := bytes.IndexByte(e.carry, '\n')
		if i < 0 {
			return nil
		}

		text := strings.TrimRight(string(e.carry[:i]), "\r")
		e.carry = e.carry[i+1:]

		select {
		case e.lines <- &Line{Text: text, Time: time.Now()}:
			metrics.LinesEmitted.With(prometheus.Labels{"source": e.cfg.Path}).Inc()
		case <-e.tomb.Dying():
			return tomb.ErrDying
		}
	}
}
