package follow

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultPollInterval = time.Second

// pollBackend detects changes by sleeping for a fixed interval and
// re-statting the file. It holds no kernel subscription and no file
// handle; worst-case detection latency is one interval, cost is one
// stat per interval regardless of file size.
type pollBackend struct {
	path     string
	interval time.Duration
	logger   *log.Entry
}

func newPollBackend(path string, interval time.Duration) *pollBackend {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &pollBackend{
		path:     path,
		interval: interval,
		logger:   log.WithFields(log.Fields{"backend": "poll", "file": path}),
	}
}

func (b *pollBackend) WaitForChange(ctx context.Context, cur Cursor) (ChangeKind, FileIdentity, error) {
	timer := time.NewTimer(b.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Unchanged, cur.Identity, ctx.Err()
	case <-timer.C:
	}

	id, err := identityOf(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Gone, cur.Identity, nil
		}

		return Unchanged, cur.Identity, fmt.Errorf("stat %s: %w", b.path, err)
	}

	kind := classify(cur, id)
	b.logger.Tracef("poll: size %d -> %d (%s)", cur.Identity.Size, id.Size, kind)

	return kind, id, nil
}

func (b *pollBackend) Close() error {
	return nil
}
