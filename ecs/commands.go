package ecs

import (
	"bytes"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"go.uber.org/multierr"
)

// ComponentData pairs a kind with the bytes to attach.
type ComponentData struct {
	Kind Kind
	Data []byte
}

// Commands provides a buffer for deferred structural changes that are applied
// after a dispatch. Creating and destroying entities is rejected while a
// dispatch walks the active list, so systems queue those changes here.
type Commands struct {
	spawns  []spawnCommand
	deletes []Entity
	adds    []addComponentCommand
	removes []removeComponentCommand
	defers  []deferCommand
}

// NewCommands returns an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []ComponentData
	created    func(Entity)
}

type addComponentCommand struct {
	entity    Entity
	component ComponentData
}

type removeComponentCommand struct {
	entity Entity
	kind   Kind
}

// Defer queues a function to run after all other commands.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues the creation of an entity with the given components. The
// payloads are copied, so callers may reuse their buffers.
func (c *Commands) Spawn(components ...ComponentData) {
	c.SpawnThen(nil, components...)
}

// SpawnThen is like Spawn and calls created with the new entity once the
// command has been applied.
func (c *Commands) SpawnThen(created func(Entity), components ...ComponentData) {
	copied := make([]ComponentData, len(components))
	for i, comp := range components {
		copied[i] = ComponentData{Kind: comp.Kind, Data: bytes.Clone(comp.Data)}
	}
	c.spawns = append(c.spawns, spawnCommand{components: copied, created: created})
}

// Delete queues an entity destruction.
func (c *Commands) Delete(entity Entity) {
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component attach. The payload is copied.
func (c *Commands) AddComponent(entity Entity, kind Kind, data []byte) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: ComponentData{Kind: kind, Data: bytes.Clone(data)},
	})
}

// RemoveComponent queues a component detach.
func (c *Commands) RemoveComponent(entity Entity, kind Kind) {
	c.removes = append(c.removes, removeComponentCommand{
		entity: entity,
		kind:   kind,
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the provided storage and resets the buffer.
// Deletes run first; removes and adds aimed at deleted entities are dropped.
// Every failing command contributes to the returned error, and the remaining
// commands still run.
func (c *Commands) Flush(storage *Storage) error {
	var errs error
	deleted := intmap.New[Entity, struct{}](len(c.deletes) + 1)

	for _, e := range c.deletes {
		if _, dup := deleted.Get(e); dup {
			continue
		}
		errs = multierr.Append(errs, storage.DestroyEntity(e))
		deleted.Put(e, struct{}{})
	}

	for _, cmd := range c.removes {
		if _, gone := deleted.Get(cmd.entity); !gone {
			errs = multierr.Append(errs, storage.RemoveComponent(cmd.entity, cmd.kind))
		}
	}

	for _, cmd := range c.adds {
		if _, gone := deleted.Get(cmd.entity); !gone {
			errs = multierr.Append(errs, storage.AddComponent(cmd.entity, cmd.component.Kind, cmd.component.Data))
		}
	}

	for _, cmd := range c.spawns {
		e, err := storage.Spawn(cmd.components...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if cmd.created != nil {
			cmd.created(e)
		}
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
	return errs
}

// Spawn creates an entity and attaches the given components. If any attach
// fails the entity is destroyed again and the error returned.
func (s *Storage) Spawn(components ...ComponentData) (Entity, error) {
	e, err := s.CreateEntity()
	if err != nil {
		return InvalidEntity, err
	}
	for _, comp := range components {
		if err := s.AddComponent(e, comp.Kind, comp.Data); err != nil {
			_ = s.DestroyEntity(e)
			return InvalidEntity, eris.Wrap(err, "spawn")
		}
	}
	return e, nil
}
