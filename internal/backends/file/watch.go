package file

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch calls onChange each time the profile file is rewritten by another process. Changes
// written through this store are ignored. It blocks until ctx is done.
//
// The parent directory is watched instead of the file itself, since atomic writers replace
// the file and the original inode stops receiving events.
func (s *ProfileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = w.Close()
	}()
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(s.path)
	log.WithField("file", s.path).Info("watching profile file")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !s.changedExternally() {
				continue
			}
			log.WithFields(log.Fields{"file": s.path, "op": event.Op.String()}).Debug("profile file changed")
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("profile file watcher error")
		}
	}
}
