package beat

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"

	"github.com/tailscope/tailscope/pkg/metrics"
)

const (
	stampLayout     = "15:04:05.000"
	defaultInterval = 2 * time.Second
)

// Writer appends a wall-clock stamp to a file at a fixed interval,
// fsyncing after each write, and mirrors every stamp on the sink. It
// is the producer half of a follow session: one process writes stamps
// while another follows the file.
type Writer struct {
	path     string
	interval time.Duration
	sink     io.Writer
	logger   *log.Entry
	tomb     *tomb.Tomb
	fd       *os.File
	now      func() time.Time
}

func NewWriter(path string, interval time.Duration, sink io.Writer) *Writer {
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Writer{
		path:     path,
		interval: interval,
		sink:     sink,
		logger:   log.WithField("file", path),
		tomb:     &tomb.Tomb{},
		now:      time.Now,
	}
}

// Start opens the target for appending, creating it if needed, and
// launches the stamping goroutine. The first stamp is written
// immediately, the rest on the interval.
func (w *Writer) Start() error {
	fd, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", w.path, err)
	}

	w.fd = fd

	w.logger.Debugf("stamping every %s", w.interval)
	w.tomb.Go(w.run)

	return nil
}

// Stop halts the writer, waiting for a write in progress to finish,
// and returns its final error.
func (w *Writer) Stop() error {
	w.tomb.Kill(nil)
	return w.tomb.Wait()
}

// Dead is closed when the writer has terminated.
func (w *Writer) Dead() <-chan struct{} {
	return w.tomb.Dead()
}

// Err returns the error the writer terminated with, or nil while it is
// still running.
func (w *Writer) Err() error {
	if err := w.tomb.Err(); err != tomb.ErrStillAlive {
		return err
	}

	return nil
}

func (w *Writer) run() error {
	defer w.fd.Close()

	if err := w.stamp(); err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.tomb.Dying():
			return nil
		case <-ticker.C:
			if err := w.stamp(); err != nil {
				return err
			}
		}
	}
}

func (w *Writer) stamp() error {
	line := w.now().Format(stampLayout)

	if _, err := fmt.Fprintln(w.fd, line); err != nil {
		return fmt.Errorf("appending to %s: %w", w.path, err)
	}

	if err := w.fd.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", w.path, err)
	}

	metrics.StampsWritten.With(prometheus.Labels{"target": w.path}).Inc()

	if w.sink != nil {
		fmt.Fprintln(w.sink, line)
	}

	return nil
}
