package assets

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Watcher reports changes to files below a directory. Events are coalesced:
// Changed() yields at most one pending notification, carrying the most
// recently modified path, so a burst of editor writes causes a single reload.
//
// The watcher goroutine never touches GPU objects. Poll Changed() from the
// render thread and reload there.
type Watcher struct {
	w       *fsnotify.Watcher
	changed chan string
	done    chan struct{}
	settle  time.Duration
}

// NewWatcher watches root and all directories below it.
func NewWatcher(root string, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create asset watcher")
	}
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watch '%s'", root)
	}

	aw := &Watcher{
		w:       fw,
		changed: make(chan string, 1),
		done:    make(chan struct{}),
		settle:  settle,
	}
	go aw.run()
	logrus.Infof("watching [%s] for asset changes", root)
	return aw, nil
}

// Changed returns the channel on which changed paths are delivered.
func (aw *Watcher) Changed() <-chan string { return aw.changed }

// Poll returns the pending changed path, if any, without blocking.
func (aw *Watcher) Poll() (string, bool) {
	select {
	case p := <-aw.changed:
		return p, true
	default:
		return "", false
	}
}

// Close stops the watcher goroutine.
func (aw *Watcher) Close() error {
	close(aw.done)
	return aw.w.Close()
}

func (aw *Watcher) run() {
	var (
		pending string
		timer   <-chan time.Time
	)
	for {
		select {
		case <-aw.done:
			return

		case ev, ok := <-aw.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logrus.Debugf("asset event [%s] %s", ev.Name, ev.Op)
			pending = ev.Name
			timer = time.After(aw.settle)

		case <-timer:
			timer = nil
			select {
			case aw.changed <- pending:
			default:
				// a notification is already waiting; replace it
				select {
				case <-aw.changed:
				default:
				}
				aw.changed <- pending
			}

		case err, ok := <-aw.w.Errors:
			if !ok {
				return
			}
			logrus.Errorf("asset watcher error (%v)", err)
		}
	}
}
