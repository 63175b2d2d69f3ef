package tracker

import (
	"sync"
	"time"

	"github.com/hustleboard/hustleboard/internal/app/domain/session"
)

// Stopwatch emits the elapsed seconds of an open session once per
// second on C. It is display plumbing only; closing it never touches
// the stored session.
type Stopwatch struct {
	C <-chan int64

	closeOnce sync.Once
	done      chan struct{}
}

// Stopwatch starts a ticker for the session. Callers must Close it to
// release the goroutine.
func (s *Service) Stopwatch(sess *session.Session) *Stopwatch {
	ch := make(chan int64, 1)
	w := &Stopwatch{C: ch, done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		defer close(ch)

		for {
			select {
			case <-w.done:
				return
			case <-ticker.C:
				select {
				case ch <- sess.Elapsed(s.clock.Now().UTC()):
				default:
					// Slow consumer; drop the tick rather than block.
				}
			}
		}
	}()
	return w
}

// Close stops the ticker. Safe to call more than once.
func (w *Stopwatch) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}
