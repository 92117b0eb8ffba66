package calc

import "sync"

// Source is a keyboard-like input surface.
//
// Listen registers the single handler that receives tokens and returns a function that
// unregisters it. After stop returns, the source must not call handler again.
type Source interface {
	Listen(handler func(Token)) (stop func())
}

// Binding connects a Source to an Engine for as long as the host keeps it.
type Binding struct {
	mu       sync.Mutex
	engine   *Engine
	released bool
	stop     func()
}

// Attach starts delivering tokens from src to e.
func Attach(src Source, e *Engine) *Binding {
	b := &Binding{engine: e}
	stop := src.Listen(b.deliver)
	b.mu.Lock()
	b.stop = stop
	b.mu.Unlock()
	return b
}

func (b *Binding) deliver(tok Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.engine.Press(tok)
}

// Released reports whether Release has been called.
func (b *Binding) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Release detaches the engine. Tokens delivered after Release returns are dropped even if the
// source fires late. Release is idempotent.
func (b *Binding) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	stop := b.stop
	b.stop = nil
	b.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Feed is an in-process Source. Emit delivers to the current listener, if any.
type Feed struct {
	mu      sync.Mutex
	handler func(Token)
	gen     uint64
}

func (f *Feed) Listen(handler func(Token)) (stop func()) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	f.handler = handler
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		if f.gen == gen {
			f.handler = nil
		}
		f.mu.Unlock()
	}
}

// Emit delivers tok and reports whether a listener received it.
func (f *Feed) Emit(tok Token) bool {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(tok)
	return true
}

// Listening reports whether a handler is registered.
func (f *Feed) Listening() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}
