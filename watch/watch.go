// Package watch re-runs a sync whenever the source locale file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the source file must be quiet before a sync.
const DefaultDebounce = 500 * time.Millisecond

// Options configures Source.
type Options struct {
	// Dir is the locale directory.
	Dir string
	// File is the source locale file name inside Dir, e.g. "en.json".
	File string
	// Debounce coalesces bursts of writes. Default: DefaultDebounce.
	Debounce time.Duration
	// OnChange runs after the source file changed. Calls never overlap.
	OnChange func(ctx context.Context)
	// OnError receives watcher errors. They do not stop the watch.
	OnError func(err error)
	// Ready, if non-nil, receives a value once the watcher is registered.
	Ready chan<- struct{}
}

// Source watches the source locale file until ctx is done.
//
// The directory is watched rather than the file so that editors which save
// by renaming a temporary file are still seen. Changes to other locale files,
// including the ones a sync writes, are ignored.
func Source(ctx context.Context, opts Options) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", opts.Dir, err)
	}

	if opts.Ready != nil {
		opts.Ready <- struct{}{}
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != opts.File {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if opts.OnChange != nil {
				opts.OnChange(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if opts.OnError != nil {
				opts.OnError(err)
			}
		}
	}
}
