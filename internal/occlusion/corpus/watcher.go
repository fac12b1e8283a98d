package corpus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tilevista/wallmask/internal/monitoring"
	"github.com/tilevista/wallmask/internal/timeutil"
)

// WatchDir watches dir for PNG changes and delivers one signal per burst of
// filesystem events, debounced: each relevant event re-arms the timer, and
// the signal fires once the directory has been quiet for the debounce
// window. The watcher shuts down when ctx is cancelled.
//
// The returned channel has capacity one and is never closed; a slow receiver
// coalesces further bursts instead of blocking the watch loop.
func WatchDir(ctx context.Context, dir string, debounce time.Duration, clock timeutil.Clock) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	notify := make(chan struct{}, 1)
	go func() {
		defer w.Close()
		var settled <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevantEvent(ev) {
					continue
				}
				settled = clock.After(debounce)
			case <-settled:
				settled = nil
				select {
				case notify <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				monitoring.Logf("[Corpus] watch error: %v", err)
			}
		}
	}()
	return notify, nil
}

func relevantEvent(ev fsnotify.Event) bool {
	const ops = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if ev.Op&ops == 0 {
		return false
	}
	return strings.HasSuffix(strings.ToLower(ev.Name), ".png")
}
