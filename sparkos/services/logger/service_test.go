package logger

import (
	"sync"
	"testing"
	"time"

	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/kernel"
)

type lineLogger struct {
	mu    sync.Mutex
	lines []string
	seen  chan struct{}
}

func (l *lineLogger) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
	l.seen <- struct{}{}
}

func (l *lineLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

type logTask struct {
	to    kernel.Capability
	lines []string
	done  chan<- error
}

func (t *logTask) Run(ctx *kernel.Context) {
	for _, line := range t.lines {
		if err := logclient.LogRetry(ctx, t.to, line, 0); err != nil {
			t.done <- err
			return
		}
	}
	t.done <- nil
}

func TestServiceWritesLines(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	out := &lineLogger{seen: make(chan struct{}, 4)}
	k.AddTask(New(out, ep.Restrict(kernel.RightRecv)))

	done := make(chan error, 1)
	k.AddTask(&logTask{to: ep.Restrict(kernel.RightSend), lines: []string{"calc: 2 + 3 = 5", "calc: error"}, done: done})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("log: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out sending log lines")
	}

	for i := 0; i < 2; i++ {
		select {
		case <-out.seen:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for log line")
		}
	}

	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.lines) != 2 || out.lines[0] != "calc: 2 + 3 = 5" || out.lines[1] != "calc: error" {
		t.Fatalf("unexpected lines: %q", out.lines)
	}
}
