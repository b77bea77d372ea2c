// Package socketutil holds helpers shared by the engines.
package socketutil

import "sync"

// WaitCloser runs a blocking close call in the background. Start returns
// at once, Close waits for the call to finish. The call runs only once.
type WaitCloser[T any] struct {
	start  sync.Once
	done   chan struct{}
	result T
}

func NewWaitCloser[T any]() *WaitCloser[T] {
	return &WaitCloser[T]{done: make(chan struct{})}
}

// Start runs closeFn in a new goroutine unless a call was already started.
func (w *WaitCloser[T]) Start(closeFn func() T) {
	w.start.Do(func() {
		go func() {
			w.result = closeFn()
			close(w.done)
		}()
	})
}

// Close starts closeFn if needed and returns its result once it finished.
func (w *WaitCloser[T]) Close(closeFn func() T) T {
	w.Start(closeFn)
	<-w.done
	return w.result
}

// Done is closed when the close call finished.
func (w *WaitCloser[T]) Done() <-chan struct{} {
	return w.done
}
