package editor

import (
	"sync"
	"time"
)

// saver coalesces rapid edits into a single deferred save. Each schedule
// call replaces any pending one, so only the snapshot captured by the most
// recent edit reaches storage.
type saver struct {
	delay time.Duration
	save  func(snapshot string)

	mu    sync.Mutex
	timer *time.Timer
}

func newSaver(delay time.Duration, save func(snapshot string)) *saver {
	return &saver{
		delay: delay,
		save:  save,
	}
}

// Schedule arms the debounce timer with a fresh snapshot, cancelling any
// pending save.
func (s *saver) Schedule(snapshot string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.save(snapshot)
	})
}

// Cancel drops any pending save without firing it.
func (s *saver) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
