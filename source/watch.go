package source

import (
	"context"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"log"
	"path/filepath"
	"time"
)

// Reloader is implemented by sources that can re-read their input.
type Reloader interface {
	Reload()
}

// Watch calls onChange (debounced) whenever one of files is written or replaced, until ctx is done.
// The parent directories are watched so that editors that replace the file are noticed too.
func Watch(ctx context.Context, files []string, debounce time.Duration, onChange func(path string)) error {
	watcher, err := newFsWatcher()
	if err != nil {
		return errors.Wrap(err, "source: watch")
	}
	wanted := map[string]bool{}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = watcher.Close()
			return errors.Wrap(err, "source: watch")
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err = watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return errors.Wrapf(err, "source: watch %s", dir)
		}
	}
	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !wanted[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				name := ev.Name
				timer = time.AfterFunc(debounce, func() {
					log.Println("[FrameSource] file changed:", name)
					onChange(name)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Println("[FrameSource] watch error:", err)
			}
		}
	}()
	return nil
}
