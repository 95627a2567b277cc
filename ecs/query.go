package ecs

import "iter"

// Query caches a required mask and, on Execute, a snapshot of the entities
// matching it. Iterating a snapshot is safe while entities are created or
// destroyed, unlike Run and Each which walk the live active list.
type Query struct {
	mask    Mask
	storage *Storage

	cachedEntities []Entity
	cacheValid     bool
}

// NewQuery creates a Query requiring every given kind. A Query declared as a
// System field is bound to its storage by Scheduler.Register.
func NewQuery(kinds ...Kind) Query {
	return Query{mask: BuildMask(kinds...)}
}

// NewBoundQuery creates a Query already bound to storage.
func NewBoundQuery(storage *Storage, kinds ...Kind) *Query {
	q := NewQuery(kinds...)
	q.Init(storage)
	return &q
}

// Init binds or re-binds the Query to a storage.
// Called by the Scheduler during system registration.
func (q *Query) Init(storage *Storage) {
	q.storage = storage
	q.cacheValid = false
	q.cachedEntities = q.cachedEntities[:0]
}

// Mask returns the required mask.
func (q *Query) Mask() Mask {
	return q.mask
}

// Execute snapshots the matching entities.
// Called automatically by the Scheduler before each system runs.
func (q *Query) Execute() {
	if q.storage == nil {
		panic("Query.Execute() called before Query.Init()")
	}

	q.cachedEntities = q.cachedEntities[:0]
	for _, idx := range q.storage.activeList {
		if q.storage.masks[idx].Contains(q.mask) {
			q.cachedEntities = append(q.cachedEntities, Entity(idx))
		}
	}
	q.cacheValid = true
}

// Len returns the size of the current snapshot.
func (q *Query) Len() int {
	return len(q.cachedEntities)
}

// Iter returns an iterator over the snapshot. Entities that died or stopped
// matching since Execute are skipped.
// Panics if Execute() has not been called.
func (q *Query) Iter() iter.Seq[Entity] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(Entity) bool) {
		for _, e := range q.cachedEntities {
			if !q.storage.Alive(e) || !q.storage.masks[e].Contains(q.mask) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
