package filetransfer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirectoryWatcher queues files dropped into a directory for sequential
// sending, one transfer at a time. Grounded on the teacher's
// -file-directory mode, rebuilt around a plain channel plus
// fsnotify.Watcher instead of that mode's inline main-function loop.
type DirectoryWatcher struct {
	Dir           string
	QueueExisting bool
	queue         chan string
	watcher       *fsnotify.Watcher
	stop          chan struct{}
}

// NewDirectoryWatcher creates a watcher over dir without starting it.
func NewDirectoryWatcher(dir string, queueExisting bool) (*DirectoryWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	return &DirectoryWatcher{
		Dir:           dir,
		QueueExisting: queueExisting,
		queue:         make(chan string, 100),
		watcher:       watcher,
		stop:          make(chan struct{}),
	}, nil
}

// Files returns the channel of full paths queued for sending, in
// discovery order.
func (w *DirectoryWatcher) Files() <-chan string {
	return w.queue
}

// Run performs the optional initial scan and then forwards create/write
// events until Stop is called.
func (w *DirectoryWatcher) Run() {
	if w.QueueExisting {
		w.scanExisting()
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 && event.Op&fsnotify.Write == 0 {
				continue
			}
			if isHidden(event.Name) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			w.queue <- event.Name
			protoLog.Printf("[watch] enqueued %s", event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			protoLog.Printf("[error] directory watcher: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *DirectoryWatcher) scanExisting() {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		protoLog.Printf("[error] scan directory %s: %v", w.Dir, err)
		return
	}
	for _, entry := range entries {
		if isHidden(entry.Name()) || entry.IsDir() {
			continue
		}
		full := filepath.Join(w.Dir, entry.Name())
		w.queue <- full
		protoLog.Printf("[watch] queued existing %s", full)
	}
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Stop halts the watch loop and releases the underlying inotify handle.
func (w *DirectoryWatcher) Stop() {
	close(w.stop)
	w.watcher.Close()
	close(w.queue)
}
