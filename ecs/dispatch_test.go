package ecs_test

import (
	"testing"

	"github.com/plus3/flatecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incrementer(s *ecs.Storage, e ecs.Entity, amount int32) {
	slot := s.GetComponent(e, 0)
	copy(slot, int32Bytes(readInt32(slot)+amount))
}

func TestRunIncrementsMatchingEntity(t *testing.T) {
	storage := newTestStorage()

	e0, err := storage.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, storage.AddComponent(e0, 0, int32Bytes(42)))

	ecs.Run(storage, incrementer, int32(5), ecs.BuildMask(0))
	assert.Equal(t, int32(47), readInt32(storage.GetComponent(e0, 0)))

	require.NoError(t, storage.DestroyEntity(e0))
	e1, err := storage.CreateEntity()
	require.NoError(t, err)
	assert.Equal(t, e0, e1, "destroyed index is recycled")

	visited := 0
	ecs.Run(storage, func(*ecs.Storage, ecs.Entity, struct{}) { visited++ }, struct{}{}, ecs.BuildMask(0))
	assert.Zero(t, visited, "recycled entity starts without components")
}

func TestRunMatchesSuperset(t *testing.T) {
	storage := newTestStorage()

	e, err := storage.CreateEntity()
	require.NoError(t, err)
	for k := ecs.Kind(0); k < 3; k++ {
		require.NoError(t, storage.AddComponent(e, k, []byte{byte(k)}))
	}
	assert.Equal(t, "{0,1,2}", storage.Mask(e).String())

	for _, required := range []ecs.Mask{ecs.BuildMask(0, 2), ecs.BuildMask(1), {}} {
		var got []ecs.Entity
		ecs.Run(storage, func(_ *ecs.Storage, e ecs.Entity, out *[]ecs.Entity) {
			*out = append(*out, e)
		}, &got, required)
		assert.Equal(t, []ecs.Entity{e}, got, "required %s", required)
	}

	visited := 0
	ecs.Run(storage, func(*ecs.Storage, ecs.Entity, *int) { visited++ }, &visited, ecs.BuildMask(0, 3))
	assert.Zero(t, visited)
}

func TestRunRequiresEveryKind(t *testing.T) {
	storage := newTestStorage()

	spawn := func(kinds ...ecs.Kind) ecs.Entity {
		e, err := storage.CreateEntity()
		require.NoError(t, err)
		for _, k := range kinds {
			require.NoError(t, storage.AddComponent(e, k, []byte{byte(k)}))
		}
		return e
	}
	partial := spawn(0, 1)
	full := spawn(0, 1, 2, 3)
	require.NotEqual(t, partial, full)

	var got []ecs.Entity
	ecs.Run(storage, func(_ *ecs.Storage, e ecs.Entity, out *[]ecs.Entity) {
		*out = append(*out, e)
	}, &got, ecs.BuildMask(0, 1, 2))
	assert.Equal(t, []ecs.Entity{full}, got)
}

func TestRunVisitsEachMatchOnce(t *testing.T) {
	storage := newTestStorage()

	var withKind []ecs.Entity
	for i := 0; i < 20; i++ {
		e, err := storage.CreateEntity()
		require.NoError(t, err)
		if i%3 == 0 {
			require.NoError(t, storage.AddComponent(e, 1, []byte{1}))
			withKind = append(withKind, e)
		}
	}

	seen := make(map[ecs.Entity]int)
	ecs.Run(storage, func(_ *ecs.Storage, e ecs.Entity, seen map[ecs.Entity]int) {
		seen[e]++
	}, seen, ecs.BuildMask(1))

	assert.Len(t, seen, len(withKind))
	for _, e := range withKind {
		assert.Equal(t, 1, seen[e])
	}
	assert.Equal(t, len(withKind), storage.Count(ecs.BuildMask(1)))
}

func TestRunZeroMaskVisitsAllLive(t *testing.T) {
	storage := newTestStorage()
	for i := 0; i < 5; i++ {
		_, err := storage.CreateEntity()
		require.NoError(t, err)
	}
	require.NoError(t, storage.DestroyEntity(2))

	var got []ecs.Entity
	storage.Each(ecs.Mask{}, func(e ecs.Entity) { got = append(got, e) })
	assert.ElementsMatch(t, []ecs.Entity{0, 1, 3, 4}, got)
}

func TestRunOnEmptyStorage(t *testing.T) {
	storage := newTestStorage()
	assert.NotPanics(t, func() {
		ecs.Run(storage, func(*ecs.Storage, ecs.Entity, int) {
			t.Fatal("no entity should be visited")
		}, 0, ecs.Mask{})
	})
}

func TestStructuralChangesDuringDispatch(t *testing.T) {
	storage := newTestStorage()
	e, err := storage.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, storage.AddComponent(e, 0, int32Bytes(1)))

	storage.Each(ecs.BuildMask(0), func(e ecs.Entity) {
		assert.True(t, storage.Dispatching())

		_, err := storage.CreateEntity()
		assert.ErrorIs(t, err, ecs.ErrDispatching)
		assert.ErrorIs(t, storage.DestroyEntity(e), ecs.ErrDispatching)

		// attach and detach only flip mask bits and stay allowed
		assert.NoError(t, storage.AddComponent(e, 1, []byte{1}))
		assert.NoError(t, storage.RemoveComponent(e, 1))
	})

	assert.False(t, storage.Dispatching())
	assert.Equal(t, 1, storage.Len())

	_, err = storage.CreateEntity()
	assert.NoError(t, err)
}

func TestDispatchingResetAfterPanic(t *testing.T) {
	storage := newTestStorage()
	_, err := storage.CreateEntity()
	require.NoError(t, err)

	assert.Panics(t, func() {
		storage.Each(ecs.Mask{}, func(ecs.Entity) { panic("boom") })
	})
	assert.False(t, storage.Dispatching())
}

func TestNestedDispatch(t *testing.T) {
	storage := newTestStorage()
	for i := 0; i < 3; i++ {
		e, err := storage.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, storage.AddComponent(e, 0, int32Bytes(int32(i))))
	}

	pairs := 0
	storage.Each(ecs.BuildMask(0), func(ecs.Entity) {
		storage.Each(ecs.BuildMask(0), func(ecs.Entity) { pairs++ })
		assert.True(t, storage.Dispatching())
	})
	assert.Equal(t, 9, pairs)
	assert.False(t, storage.Dispatching())
}
