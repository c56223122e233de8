package usecase

import "sync"

// Viewport stands in for the browser window: it carries the current width
// and the resize listeners registered by active sessions.
type Viewport struct {
	mu        sync.Mutex
	width     int
	listeners map[int]func(width int)
	next      int
}

func NewViewport(width int) *Viewport {
	return &Viewport{width: width, listeners: make(map[int]func(int))}
}

// OnResize registers fn and returns its release func.
func (v *Viewport) OnResize(fn func(width int)) (release func()) {
	v.mu.Lock()
	v.next++
	id := v.next
	v.listeners[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.listeners, id)
			v.mu.Unlock()
		})
	}
}

// Resize updates the width and notifies listeners. Non-positive widths are ignored.
func (v *Viewport) Resize(width int) {
	if width <= 0 {
		return
	}
	v.mu.Lock()
	v.width = width
	fns := make([]func(int), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(width)
	}
}

func (v *Viewport) Width() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width
}

// Listeners returns the number of registered resize listeners.
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
