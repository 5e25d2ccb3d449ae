package testtypes

import (
	"sync"
)

// Recorder records lifecycle events in the order they happen.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *Recorder) Record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

// Lifecycle records its Initialize and Dispose calls.
// InitErr and DisposeErr are returned from those calls.
type Lifecycle struct {
	Name       string
	Recorder   *Recorder
	InitErr    error
	DisposeErr error
}

func (l *Lifecycle) Initialize() error {
	l.Recorder.Record("init " + l.Name)
	return l.InitErr
}

func (l *Lifecycle) Dispose() error {
	l.Recorder.Record("dispose " + l.Name)
	return l.DisposeErr
}

// First and Second are disposable services where Second depends on First.
type (
	First  struct{ *Lifecycle }
	Second struct {
		*Lifecycle
		First *First
	}
)

func NewFirst(r *Recorder) *First {
	return &First{&Lifecycle{Name: "first", Recorder: r}}
}

func NewSecond(r *Recorder, first *First) *Second {
	return &Second{Lifecycle: &Lifecycle{Name: "second", Recorder: r}, First: first}
}

// Closer implements Close() error instead of Dispose.
type Closer struct {
	Closed bool
}

func (c *Closer) Close() error {
	c.Closed = true
	return nil
}
