package ecs_test

import (
	"testing"

	"github.com/plus3/flatecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var comps = newTestComponents()

type testSpawnSystem struct {
	executed bool
}

func (s *testSpawnSystem) Execute(frame *ecs.UpdateFrame) {
	s.executed = true
	frame.Commands.Spawn(comps.position.Data(Position{X: 1, Y: 2}), comps.velocity.Data(Velocity{DX: 0.5, DY: 0.5}))
	frame.Commands.Spawn(comps.position.Data(Position{X: 3, Y: 4}))
}

type testDeleteSystem struct {
	entityToDelete ecs.Entity
}

func (s *testDeleteSystem) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.Delete(s.entityToDelete)
}

type testAddSystem struct {
	entity ecs.Entity
}

func (s *testAddSystem) Execute(frame *ecs.UpdateFrame) {
	d := comps.velocity.Data(Velocity{DX: 5, DY: 10})
	frame.Commands.AddComponent(s.entity, d.Kind, d.Data)
}

type testRemoveSystem struct {
	entity ecs.Entity
}

func (s *testRemoveSystem) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.RemoveComponent(s.entity, comps.velocity.Kind)
}

type testMixedSystem struct {
	entity ecs.Entity
}

func (s *testMixedSystem) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.Spawn(comps.position.Data(Position{X: 10, Y: 20}))
	d := comps.velocity.Data(Velocity{DX: 1, DY: 1})
	frame.Commands.AddComponent(s.entity, d.Kind, d.Data)
	frame.Commands.Delete(s.entity)
	frame.Commands.Spawn(comps.health.Data(Health{Current: 100, Max: 100}))
}

// Systems for cross-system entity mutation tests
type systemRemoveVelocity struct {
	entity ecs.Entity
}

func (s *systemRemoveVelocity) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.RemoveComponent(s.entity, comps.velocity.Kind)
}

type systemAddHealth struct {
	entity ecs.Entity
}

func (s *systemAddHealth) Execute(frame *ecs.UpdateFrame) {
	d := comps.health.Data(Health{Current: 50, Max: 100})
	frame.Commands.AddComponent(s.entity, d.Kind, d.Data)
}

type systemAddVelocity struct {
	entity ecs.Entity
}

func (s *systemAddVelocity) Execute(frame *ecs.UpdateFrame) {
	d := comps.velocity.Data(Velocity{DX: 1, DY: 2})
	frame.Commands.AddComponent(s.entity, d.Kind, d.Data)
}

type systemRemoveHealth struct {
	entity ecs.Entity
}

func (s *systemRemoveHealth) Execute(frame *ecs.UpdateFrame) {
	frame.Commands.RemoveComponent(s.entity, comps.health.Kind)
}

func spawnOrFail(t *testing.T, storage *ecs.Storage, components ...ecs.ComponentData) ecs.Entity {
	t.Helper()
	e, err := storage.Spawn(components...)
	require.NoError(t, err)
	return e
}

func TestCommands(t *testing.T) {
	t.Run("spawn entities", func(t *testing.T) {
		storage := newTestStorage()
		scheduler := ecs.NewScheduler(storage)

		system := &testSpawnSystem{}
		scheduler.Register(system)

		if storage.Count(comps.position.Mask()) != 0 {
			t.Error("entities spawned before frame execution")
		}

		require.NoError(t, scheduler.Once(1.0))

		if count := storage.Count(comps.position.Mask()); count != 2 {
			t.Errorf("expected 2 entities after frame, got %d", count)
		}
		assert.Equal(t, 1, storage.Count(comps.position.Mask().With(comps.velocity.Kind)))

		if !system.executed {
			t.Error("system was not executed")
		}
	})

	t.Run("delete entities", func(t *testing.T) {
		storage := newTestStorage()
		e1 := spawnOrFail(t, storage, comps.position.Data(Position{X: 1, Y: 2}))
		e2 := spawnOrFail(t, storage, comps.position.Data(Position{X: 3, Y: 4}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&testDeleteSystem{entityToDelete: e1})

		if !storage.Alive(e1) {
			t.Error("entity deleted before frame execution")
		}

		require.NoError(t, scheduler.Once(1.0))

		if storage.Alive(e1) {
			t.Error("entity not deleted after frame")
		}
		if !comps.position.Has(storage, e2) {
			t.Error("wrong entity deleted")
		}
	})

	t.Run("add components", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage, comps.position.Data(Position{X: 1, Y: 2}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&testAddSystem{entity: entity})

		require.NoError(t, scheduler.Once(1.0))

		require.True(t, comps.velocity.Has(storage, entity))
		assert.Equal(t, Velocity{DX: 5, DY: 10}, *comps.velocity.Get(storage, entity))
		assert.Equal(t, Position{X: 1, Y: 2}, *comps.position.Get(storage, entity))
	})

	t.Run("remove components", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage,
			comps.position.Data(Position{X: 1, Y: 2}),
			comps.velocity.Data(Velocity{DX: 5, DY: 10}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&testRemoveSystem{entity: entity})

		require.NoError(t, scheduler.Once(1.0))

		if storage.Count(comps.position.Mask().With(comps.velocity.Kind)) != 0 {
			t.Error("velocity component not removed")
		}
		if !comps.position.Has(storage, entity) {
			t.Error("entity with only position not found")
		}
	})

	t.Run("mixed operations", func(t *testing.T) {
		storage := newTestStorage()
		e1 := spawnOrFail(t, storage, comps.position.Data(Position{X: 1, Y: 2}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&testMixedSystem{entity: e1})
		require.NoError(t, scheduler.Once(1.0), "the add aimed at the deleted entity is dropped")

		if count := storage.Count(comps.position.Mask()); count != 1 {
			t.Errorf("expected 1 position entity, got %d", count)
		}
		assert.Equal(t, 1, storage.Count(comps.health.Mask()))
		assert.Equal(t, 2, storage.Len())
	})

	// Cross-system entity mutation tests
	t.Run("cross-system remove then add same entity", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage,
			comps.position.Data(Position{X: 1, Y: 2}),
			comps.velocity.Data(Velocity{DX: 5, DY: 10}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&systemRemoveVelocity{entity: entity})
		scheduler.Register(&systemAddHealth{entity: entity})
		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, ecs.BuildMask(comps.position.Kind, comps.health.Kind), storage.Mask(entity))
		assert.Equal(t, Health{Current: 50, Max: 100}, *comps.health.Get(storage, entity))
	})

	t.Run("cross-system multiple adds same entity", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage, comps.position.Data(Position{X: 3, Y: 4}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&systemAddVelocity{entity: entity})
		scheduler.Register(&systemAddHealth{entity: entity})
		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, Position{X: 3, Y: 4}, *comps.position.Get(storage, entity))
		assert.Equal(t, Velocity{DX: 1, DY: 2}, *comps.velocity.Get(storage, entity))
		assert.Equal(t, Health{Current: 50, Max: 100}, *comps.health.Get(storage, entity))
	})

	t.Run("cross-system chained mutations same entity", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage,
			comps.position.Data(Position{X: 5, Y: 6}),
			comps.velocity.Data(Velocity{DX: 1, DY: 1}),
			comps.health.Data(Health{Current: 100, Max: 100}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&systemRemoveVelocity{entity: entity})
		scheduler.Register(&systemRemoveHealth{entity: entity})
		require.NoError(t, scheduler.Once(1.0))

		assert.Equal(t, comps.position.Mask(), storage.Mask(entity))
		assert.Equal(t, Position{X: 5, Y: 6}, *comps.position.Get(storage, entity))
	})

	t.Run("cross-system mutation after delete is ignored", func(t *testing.T) {
		storage := newTestStorage()
		entity := spawnOrFail(t, storage, comps.position.Data(Position{X: 7, Y: 8}))

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&testDeleteSystem{entityToDelete: entity})
		scheduler.Register(&systemAddHealth{entity: entity})
		require.NoError(t, scheduler.Once(1.0))

		assert.False(t, storage.Alive(entity))
		assert.Equal(t, 0, storage.Count(comps.health.Mask()), "no Health-only entities should exist")
	})
}

func TestCommandsFlushErrors(t *testing.T) {
	storage := newTestStorage()
	entity := spawnOrFail(t, storage, comps.position.Data(Position{}))

	cmds := ecs.NewCommands()
	cmds.Delete(40)
	cmds.RemoveComponent(entity, comps.health.Kind)
	d := comps.position.Data(Position{X: 9})
	cmds.AddComponent(entity, d.Kind, d.Data)
	cmds.Spawn(comps.score.Data(Score(1)))

	deferred := false
	cmds.Defer(func() { deferred = true })
	assert.Equal(t, 5, cmds.Len())

	err := cmds.Flush(storage)
	require.Error(t, err)
	assert.ErrorIs(t, err, ecs.ErrNotFound)
	assert.ErrorIs(t, err, ecs.ErrNotPresent)
	assert.ErrorIs(t, err, ecs.ErrAlreadyPresent)

	assert.True(t, deferred, "remaining commands still run")
	assert.Equal(t, 1, storage.Count(comps.score.Mask()))
	assert.Equal(t, 0, cmds.Len(), "flush resets the buffer")
	assert.NoError(t, cmds.Flush(storage))
}

func TestCommandsDuplicateDelete(t *testing.T) {
	storage := newTestStorage()
	entity := spawnOrFail(t, storage)

	cmds := ecs.NewCommands()
	cmds.Delete(entity)
	cmds.Delete(entity)

	assert.NoError(t, cmds.Flush(storage))
	assert.Equal(t, 0, storage.Len())
}

func TestCommandsCopyPayload(t *testing.T) {
	storage := newTestStorage()
	entity := spawnOrFail(t, storage)

	payload := int32Bytes(7)
	cmds := ecs.NewCommands()
	cmds.AddComponent(entity, 6, payload)
	cmds.Spawn(ecs.ComponentData{Kind: 6, Data: payload})
	payload[0] = 0xff

	var spawned ecs.Entity
	cmds.SpawnThen(func(e ecs.Entity) { spawned = e }, ecs.ComponentData{Kind: 7, Data: []byte{1}})

	require.NoError(t, cmds.Flush(storage))
	assert.Equal(t, int32(7), readInt32(storage.GetComponent(entity, 6)))
	assert.Equal(t, 2, storage.Count(ecs.BuildMask(6)))
	assert.True(t, storage.HasComponent(spawned, 7))
}

func TestCommandsDuringDispatch(t *testing.T) {
	storage := newTestStorage()
	for i := 0; i < 4; i++ {
		spawnOrFail(t, storage, comps.score.Data(Score(i)))
	}

	cmds := ecs.NewCommands()
	storage.Each(comps.score.Mask(), func(e ecs.Entity) {
		if *comps.score.Get(storage, e)%2 == 0 {
			cmds.Delete(e)
		}
		cmds.Spawn(comps.tag.Data(Tag(1)))
	})

	require.NoError(t, cmds.Flush(storage))
	assert.Equal(t, 2, storage.Count(comps.score.Mask()))
	assert.Equal(t, 4, storage.Count(comps.tag.Mask()))
}
