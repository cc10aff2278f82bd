package serv

import (
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/fsnotify/fsnotify"
)

const (
	// editors often write a file in several steps
	reloadDelay = 500 * time.Millisecond

	reloadAttempts   = 3
	reloadRetryDelay = 200 * time.Millisecond
)

// Initialize the watcher for the sqlbridge config file
func initConfigWatcher(s1 *HttpService) {
	s := s1.Load().(*service)
	if s.conf.Production || s.conf.ConfigFileUsed() == "" {
		return
	}

	go func() {
		err := startConfigWatcher(s1)
		if err != nil {
			s.log.Errorf("error in config file watcher: %s", err)
		}
	}()
}

// startConfigWatcher reloads the service whenever the config file changes.
// The directory is watched so files replaced by a rename are still seen.
func startConfigWatcher(s1 *HttpService) error {
	s := s1.Load().(*service)
	cf := s.conf.ConfigFileUsed()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(cf)); err != nil {
		return err
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-s1.done:
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(cf) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			err := retry.Do(s1.Reload,
				retry.Attempts(reloadAttempts),
				retry.Delay(reloadRetryDelay),
				retry.DelayType(retry.FixedDelay),
				retry.LastErrorOnly(true))
			if err != nil {
				s1.Load().(*service).log.Errorf("config reload failed: %s", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s1.Load().(*service).log.Warnf("config watcher: %s", err)
		}
	}
}
