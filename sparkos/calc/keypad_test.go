package calc

import (
	"sync"
	"testing"
)

func emitScript(t *testing.T, f *Feed, script string) {
	t.Helper()
	for _, tok := range mustKeys(t, script) {
		if !f.Emit(tok) {
			t.Fatalf("Emit(%v): no listener", tok)
		}
	}
}

func TestBindingDeliversTokens(t *testing.T) {
	var f Feed
	e := NewEngine()
	b := Attach(&f, e)
	defer b.Release()

	emitScript(t, &f, "6*7=")
	if got := e.Display(); got != "42" {
		t.Fatalf("display = %q, want %q", got, "42")
	}
}

func TestBindingReleaseStopsDelivery(t *testing.T) {
	var f Feed
	e := NewEngine()
	b := Attach(&f, e)
	emitScript(t, &f, "12")

	b.Release()
	if !b.Released() {
		t.Fatalf("Released() = false after Release")
	}
	if f.Listening() {
		t.Fatalf("feed still has a listener after Release")
	}
	if f.Emit(DigitToken('3')) {
		t.Fatalf("Emit delivered after Release")
	}
	if got := e.Display(); got != "12" {
		t.Fatalf("display = %q, want %q", got, "12")
	}

	b.Release()
}

type leakySource struct {
	handler func(Token)
}

func (s *leakySource) Listen(h func(Token)) func() {
	s.handler = h
	return func() {}
}

func TestBindingDropsLateTokens(t *testing.T) {
	src := &leakySource{}
	e := NewEngine()
	b := Attach(src, e)

	src.handler(DigitToken('4'))
	b.Release()
	src.handler(DigitToken('5'))
	src.handler(ClearAllToken)

	if got := e.Display(); got != "4" {
		t.Fatalf("display = %q, want %q", got, "4")
	}
}

func TestFeedRebind(t *testing.T) {
	var f Feed
	first := NewEngine()
	second := NewEngine()

	b1 := Attach(&f, first)
	emitScript(t, &f, "1")
	b2 := Attach(&f, second)
	emitScript(t, &f, "2")

	// A stale binding must not unregister its successor.
	b1.Release()
	if !f.Listening() {
		t.Fatalf("releasing a stale binding removed the current listener")
	}
	emitScript(t, &f, "3")
	b2.Release()

	if first.Display() != "1" || second.Display() != "23" {
		t.Fatalf("displays = %q, %q; want \"1\", \"23\"", first.Display(), second.Display())
	}
}

func TestBindingReleaseRacesEmit(t *testing.T) {
	var f Feed
	e := NewEngine()
	b := Attach(&f, e)

	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					f.Emit(DigitToken('1'))
				}
			}
		}()
	}

	b.Release()
	b.mu.Lock()
	frozen := e.State()
	b.mu.Unlock()

	close(done)
	wg.Wait()

	if got := e.State(); got != frozen {
		t.Fatalf("state changed after Release: %+v -> %+v", frozen, got)
	}
}
