package session

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openkart/racecore/log"
	"github.com/openkart/racecore/pkg/track"
)

// debounce absorbs the editor write-then-rename bursts that fsnotify
// reports as several events for one save.
const watchDebounce = 100 * time.Millisecond

// TrackWatcher reloads a track file on change and queues the rebuilt curve
// on the session. Parsing and spline construction happen on the watcher
// goroutine; the session applies the swap between ticks.
type TrackWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	sess    *Session
	l       *log.Logger
	done    chan struct{}
}

// WatchTrack starts watching path for writes. The directory is watched
// rather than the file itself so atomic-save editors that replace the file
// keep triggering reloads.
func WatchTrack(path string, sess *Session) (*TrackWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	tw := &TrackWatcher{
		watcher: w,
		path:    abs,
		sess:    sess,
		l:       log.Default().Named("trackwatch"),
		done:    make(chan struct{}),
	}
	go tw.run()
	tw.l.Info("watching track file", log.String("path", abs))
	return tw, nil
}

func (tw *TrackWatcher) run() {
	defer close(tw.done)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if !tw.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			tw.reload()
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.l.Warn("watch error", log.ErrorField(err))
		}
	}
}

func (tw *TrackWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Name != tw.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

func (tw *TrackWatcher) reload() {
	def, err := track.LoadFile(tw.path)
	if err != nil {
		tw.l.Warn("track reload failed, keeping current track",
			log.String("path", tw.path), log.ErrorField(err))
		return
	}
	if err := tw.sess.QueueTrack(def); err != nil {
		tw.l.Warn("track rebuild failed, keeping current track",
			log.String("path", tw.path), log.ErrorField(err))
		return
	}
	tw.l.Info("track reload queued", log.String("name", def.Name))
}

// Close stops the watcher and waits for its goroutine to exit.
func (tw *TrackWatcher) Close() error {
	err := tw.watcher.Close()
	<-tw.done
	return err
}
