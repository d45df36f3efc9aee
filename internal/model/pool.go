package model

import (
	"sync"
)

// pool hands out a fixed set of inference sessions so that concurrent
// requests never share input or output tensors.
type pool[T any] struct {
	items   chan T
	size    int
	destroy func(T)

	mu     sync.RWMutex
	closed bool
}

// newPool opens size items. If any open fails the ones already created are
// destroyed.
func newPool[T any](size int, open func(i int) (T, error), destroy func(T)) (*pool[T], error) {
	if size < 1 {
		size = 1
	}

	p := &pool[T]{
		items:   make(chan T, size),
		size:    size,
		destroy: destroy,
	}

	for i := 0; i < size; i++ {
		item, err := open(i)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Put(item)
	}

	return p, nil
}

// Get blocks until an item is free. ok is false once the pool is closed.
func (p *pool[T]) Get() (item T, ok bool) {
	item, ok = <-p.items
	return item, ok
}

// Put returns an item to the pool. Items put back after Close, or beyond
// the pool's size, are destroyed.
func (p *pool[T]) Put(item T) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.destroy(item)
		return
	}

	select {
	case p.items <- item:
	default:
		p.destroy(item)
	}
}

// Size is the number of items the pool was opened with.
func (p *pool[T]) Size() int {
	return p.size
}

// Close destroys every idle item and wakes blocked callers of Get.
func (p *pool[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.items)
	for next := range p.items {
		p.destroy(next)
	}
}
