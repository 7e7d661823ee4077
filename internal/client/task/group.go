// Package task runs keyed, cancellable units of work. Starting a task under a
// key that is already running cancels the earlier one.
package task

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by an operation whose task was replaced by a
// newer one with the same key (or cancelled by CancelAll).
var ErrSuperseded = errors.New("superseded by a newer request")

type entry struct {
	cancel context.CancelCauseFunc
}

// Group tracks running tasks by key. The zero value is ready to use.
type Group struct {
	mu      sync.Mutex
	running map[string]*entry
}

// Start registers a task under key and returns its context. Any task already
// running under key is cancelled with ErrSuperseded as its cause. The caller
// must call finish when the task is done.
func (g *Group) Start(ctx context.Context, key string) (context.Context, func()) {
	tctx, cancel := context.WithCancelCause(ctx)
	e := &entry{cancel: cancel}

	g.mu.Lock()
	if g.running == nil {
		g.running = make(map[string]*entry)
	}
	if prev, ok := g.running[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	g.running[key] = e
	g.mu.Unlock()

	var once sync.Once
	finish := func() {
		once.Do(func() {
			g.mu.Lock()
			if cur, ok := g.running[key]; ok && cur == e {
				delete(g.running, key)
			}
			g.mu.Unlock()
			cancel(nil)
		})
	}
	return tctx, finish
}

// CancelAll supersedes every running task.
func (g *Group) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, e := range g.running {
		e.cancel(ErrSuperseded)
		delete(g.running, key)
	}
}

// Running reports whether a task is registered under key.
func (g *Group) Running(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[key]
	return ok
}

// Superseded reports whether the task owning ctx was replaced. It must be
// checked before finish is called.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
