package ecs

// SystemFunc is invoked once per matching entity by Run. It may read and
// write any component through GetComponent, attach or detach components, and
// queue structural changes on a Commands buffer; creating or destroying
// entities directly fails with ErrDispatching until the dispatch returns.
type SystemFunc[C any] func(s *Storage, e Entity, ctx C)

// Run calls system for every live entity whose mask contains required, in
// active-list order. Each match is visited exactly once.
func Run[C any](s *Storage, system SystemFunc[C], ctx C, required Mask) {
	s.Each(required, func(e Entity) {
		system(s, e, ctx)
	})
}

// Each calls fn for every live entity whose mask contains required.
func (s *Storage) Each(required Mask, fn func(Entity)) {
	s.dispatching++
	defer func() { s.dispatching-- }()

	for _, idx := range s.activeList {
		if s.masks[idx].Contains(required) {
			fn(Entity(idx))
		}
	}
}

// Count returns how many live entities match required.
func (s *Storage) Count(required Mask) int {
	n := 0
	for _, idx := range s.activeList {
		if s.masks[idx].Contains(required) {
			n++
		}
	}
	return n
}

// Dispatching reports whether a Run or Each is in progress.
func (s *Storage) Dispatching() bool {
	return s.dispatching > 0
}
