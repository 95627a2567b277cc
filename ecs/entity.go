package ecs

import "math"

// Entity is an index into the storage's fixed-size entity arrays.
// A destroyed entity's index may be handed out again by CreateEntity; the
// new handle names a different logical entity.
type Entity uint32

// InvalidEntity is never returned by CreateEntity.
const InvalidEntity Entity = math.MaxUint32

// Index returns the entity's slot index.
func (e Entity) Index() int {
	return int(e)
}

// Kind identifies a category of component data. Its meaning and byte layout
// are a contract between callers; the storage never interprets it.
type Kind uint16

// notActive marks an entity slot that is absent from the active list.
const notActive = math.MaxUint32
