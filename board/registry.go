package board

import (
	"strconv"
	"sync"

	petname "github.com/dustinkirkland/golang-petname"
)

// Registry issues board ids. Boards share nothing else through it.
type Registry struct {
	mu   sync.Mutex
	next uint64
	live map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[string]struct{})}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}

// Issue returns a fresh id such as "brave-otter-3". The counter suffix keeps
// ids unique when the name generator repeats itself.
func (r *Registry) Issue() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := petname.Generate(2, "-") + "-" + strconv.FormatUint(r.next, 10)
	r.live[id] = struct{}{}
	return id
}

// Release forgets id. It returns false if id was not live.
func (r *Registry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; !ok {
		return false
	}
	delete(r.live, id)
	return true
}

// Len returns the number of live ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
