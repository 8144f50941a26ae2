package anim

import "sync"

// Completion is a one-shot signal. It fires exactly once; callbacks
// registered after that run immediately.
type Completion struct {
	mu    sync.Mutex
	fired bool
	ch    chan struct{}
	cbs   []func()
}

// NewCompletion returns an unfired completion.
func NewCompletion() *Completion {
	return &Completion{ch: make(chan struct{})}
}

// Completed returns a completion that has already fired.
func Completed() *Completion {
	c := NewCompletion()
	c.Fire()
	return c
}

// Fire marks the completion done and runs its callbacks in registration order.
// It returns false if the completion had already fired.
func (c *Completion) Fire() bool {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()
		return false
	}
	c.fired = true
	close(c.ch)
	cbs := c.cbs
	c.cbs = nil
	c.mu.Unlock()

	for _, fn := range cbs {
		fn()
	}
	return true
}

// Done returns a channel closed when the completion fires.
func (c *Completion) Done() <-chan struct{} {
	return c.ch
}

// Fired reports whether the completion has fired.
func (c *Completion) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

// OnDone registers fn to run when the completion fires. If it already has,
// fn runs before OnDone returns.
func (c *Completion) OnDone(fn func()) {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()
		fn()
		return
	}
	c.cbs = append(c.cbs, fn)
	c.mu.Unlock()
}

// All returns a completion that fires once every given completion has fired.
// Nil entries count as fired.
func All(cs ...*Completion) *Completion {
	out := NewCompletion()
	pending := len(cs)
	if pending == 0 {
		out.Fire()
		return out
	}
	var mu sync.Mutex
	for _, c := range cs {
		if c == nil {
			c = Completed()
		}
		c.OnDone(func() {
			mu.Lock()
			pending--
			last := pending == 0
			mu.Unlock()
			if last {
				out.Fire()
			}
		})
	}
	return out
}
