package follow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// notifyBackend detects changes through a kernel change-notification
// subscription. The watch is placed on the parent directory and events
// are filtered to the watched filename, so replace-via-rename rotation
// and recreation of the file are still observed.
//
// The kernel may coalesce several writes into one event, so an event
// is treated purely as a wake-up signal: the backend re-stats the file
// and classifies from the observed state, never from the event itself.
type notifyBackend struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *log.Entry
}

func newNotifyBackend(path string) (*notifyBackend, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: creating watcher: %s", ErrSetupFailed, err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("%w: watching %s: %s", ErrSetupFailed, filepath.Dir(path), err)
	}

	return &notifyBackend{
		path:    path,
		watcher: watcher,
		logger:  log.WithFields(log.Fields{"backend": "notify", "file": path}),
	}, nil
}

func (b *notifyBackend) WaitForChange(ctx context.Context, cur Cursor) (ChangeKind, FileIdentity, error) {
	for {
		select {
		case <-ctx.Done():
			return Unchanged, cur.Identity, ctx.Err()

		case event, ok := <-b.watcher.Events:
			if !ok {
				return Unchanged, cur.Identity, fmt.Errorf("event channel closed for %s", b.path)
			}

			if filepath.Clean(event.Name) != filepath.Clean(b.path) {
				continue
			}

			b.logger.Tracef("woken by %s", event.Op)

			id, err := identityOf(b.path)
			if err != nil {
				if os.IsNotExist(err) {
					return Gone, cur.Identity, nil
				}

				return Unchanged, cur.Identity, fmt.Errorf("stat %s: %w", b.path, err)
			}

			kind := classify(cur, id)
			if kind == Unchanged {
				// chmod or a coalesced event we already consumed
				continue
			}

			return kind, id, nil

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return Unchanged, cur.Identity, fmt.Errorf("error channel closed for %s", b.path)
			}

			return Unchanged, cur.Identity, fmt.Errorf("watching %s: %w", b.path, err)
		}
	}
}

func (b *notifyBackend) Close() error {
	return b.watcher.Close()
}
