package app

import (
	"sync"

	"github.com/kilianp07/cspbc/core/instance"
)

// cachedLoader parses each instance once. Instances are read-only after
// parsing so they can be shared by concurrent checks.
type cachedLoader struct {
	next instance.Loader
	mu   sync.Mutex
	byID map[string]*instance.Instance
}

func newCachedLoader(next instance.Loader) *cachedLoader {
	return &cachedLoader{next: next, byID: make(map[string]*instance.Instance)}
}

func (l *cachedLoader) Load(name string) (*instance.Instance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if inst, ok := l.byID[name]; ok {
		return inst, nil
	}
	inst, err := l.next.Load(name)
	if err != nil {
		return nil, err
	}
	l.byID[name] = inst
	return inst, nil
}

// fileLoader ignores the requested name and loads a fixed file.
type fileLoader string

func (f fileLoader) Load(string) (*instance.Instance, error) {
	return instance.Load(string(f))
}
