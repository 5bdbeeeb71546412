package inbox

import (
	"slices"
	"sync"
)

// subscribers fans snapshots out to listeners. A listener removed while a
// publish is running is not called again.
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

func (s *subscribers[T]) publish(v T) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		s.mu.Lock()
		fn, ok := s.fns[id]
		s.mu.Unlock()
		if ok {
			fn(v)
		}
	}
}
