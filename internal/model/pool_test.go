package model

import (
	"errors"
	"sync"
	"testing"
)

func TestPoolGetPut(t *testing.T) {
	var destroyed []int
	p, err := newPool(3, func(i int) (int, error) { return i, nil }, func(v int) {
		destroyed = append(destroyed, v)
	})
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}

	if p.Size() != 3 {
		t.Errorf("Expected size 3, got %d", p.Size())
	}

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		v, ok := p.Get()
		if !ok {
			t.Fatal("Expected item")
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Errorf("Expected 3 distinct items, got %v", seen)
	}

	for v := range seen {
		p.Put(v)
	}

	p.Close()
	if len(destroyed) != 3 {
		t.Errorf("Expected 3 destroyed items, got %v", destroyed)
	}

	if _, ok := p.Get(); ok {
		t.Error("Get after Close should report closed")
	}

	p.Put(42)
	if destroyed[len(destroyed)-1] != 42 {
		t.Error("Put after Close should destroy the item")
	}

	// second close is a no-op
	p.Close()
}

func TestPoolOpenFailure(t *testing.T) {
	var destroyed int
	_, err := newPool(4, func(i int) (int, error) {
		if i == 2 {
			return 0, errors.New("boom")
		}
		return i, nil
	}, func(int) { destroyed++ })

	if err == nil {
		t.Fatal("Expected error")
	}
	if destroyed != 2 {
		t.Errorf("Expected the 2 opened items to be destroyed, got %d", destroyed)
	}
}

func TestPoolMinimumSize(t *testing.T) {
	p, err := newPool(0, func(i int) (int, error) { return i, nil }, func(int) {})
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}
	defer p.Close()

	if p.Size() != 1 {
		t.Errorf("Expected size 1, got %d", p.Size())
	}
}

func TestPoolConcurrentUse(t *testing.T) {
	p, err := newPool(2, func(i int) (*int, error) { v := 0; return &v, nil }, func(*int) {})
	if err != nil {
		t.Fatalf("newPool failed: %v", err)
	}
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, ok := p.Get()
			if !ok {
				return
			}
			*v++
			p.Put(v)
		}()
	}
	wg.Wait()

	a, _ := p.Get()
	b, _ := p.Get()
	if *a+*b != 50 {
		t.Errorf("Expected 50 total uses, got %d", *a+*b)
	}
	p.Put(a)
	p.Put(b)
}
